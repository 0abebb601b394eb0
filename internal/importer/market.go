package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cmxcli/internal/snapshot"
)

// marketReport is the on-disk shape of a daily futures market export
type marketReport struct {
	Date    string `json:"date"`
	Entries []struct {
		Metal           string  `json:"metal"`
		OpenInterest    float64 `json:"open_interest"`
		PaperEquivalent float64 `json:"paper_equivalent"`
	} `json:"entries"`
}

// ParseMarketFile reads a daily futures market JSON export and extracts one
// market snapshot per metal.
func ParseMarketFile(path string) ([]snapshot.MarketSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read market file: %w", err)
	}

	var report marketReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse market file %s: %w", filepath.Base(path), err)
	}

	date, err := time.Parse("2006-01-02", report.Date)
	if err != nil {
		return nil, fmt.Errorf("market file %s has invalid date %q: %w", filepath.Base(path), report.Date, err)
	}

	var snaps []snapshot.MarketSnapshot
	for _, e := range report.Entries {
		metal := snapshot.Metal(e.Metal)
		if !metal.IsValid() {
			continue
		}
		snaps = append(snaps, snapshot.MarketSnapshot{
			Metal:           metal,
			Date:            date,
			OpenInterest:    e.OpenInterest,
			PaperEquivalent: e.PaperEquivalent,
		})
	}

	if len(snaps) == 0 {
		return nil, fmt.Errorf("no metal entries found in %s", filepath.Base(path))
	}
	return snaps, nil
}
