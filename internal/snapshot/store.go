package snapshot

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"cmxcli/internal/risk"
)

const (
	inventoryFile = "inventory_snapshots.csv"
	marketFile    = "market_snapshots.csv"
	riskFile      = "risk_scores.csv"

	dateLayout = "2006-01-02"
)

// History lookback windows. The 30-day inventory change tolerates a few
// missing report days; the year-over-year open interest change tolerates a
// couple of months, matching how exchange data actually arrives.
const (
	minInventoryLookback = 25 * 24 * time.Hour
	minOILookback        = 300 * 24 * time.Hour
)

// Store persists snapshot tables as dated CSV files under a data directory,
// keyed by (metal, report date) with upsert-on-conflict semantics.
type Store struct {
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewStore creates a snapshot store rooted at dir
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// UpsertInventory stores an inventory snapshot, replacing any existing row
// for the same metal and report date.
func (s *Store) UpsertInventory(ctx context.Context, snap InventorySnapshot) error {
	if !snap.IsValid() {
		return fmt.Errorf("invalid inventory snapshot for %q", snap.Metal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readInventory()
	if err != nil {
		return err
	}

	rows = upsertRow(rows, snap, func(r InventorySnapshot) (Metal, time.Time) { return r.Metal, r.Date })

	s.logger.DebugContext(ctx, "upserting inventory snapshot",
		"metal", snap.Metal.String(),
		"date", snap.Date.Format(dateLayout),
		"registered", snap.Registered,
	)

	return s.writeInventory(rows)
}

// UpsertMarket stores a market snapshot, replacing any existing row for the
// same metal and report date.
func (s *Store) UpsertMarket(ctx context.Context, snap MarketSnapshot) error {
	if !snap.IsValid() {
		return fmt.Errorf("invalid market snapshot for %q", snap.Metal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readMarket()
	if err != nil {
		return err
	}

	rows = upsertRow(rows, snap, func(r MarketSnapshot) (Metal, time.Time) { return r.Metal, r.Date })

	return s.writeMarket(rows)
}

// UpsertRiskScore stores an engine result, replacing any existing row for the
// same metal and report date.
func (s *Store) UpsertRiskScore(ctx context.Context, row RiskScoreRow) error {
	if !row.Metal.IsValid() || row.Date.IsZero() {
		return fmt.Errorf("invalid risk score row for %q", row.Metal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRiskScores()
	if err != nil {
		return err
	}

	rows = upsertRow(rows, row, func(r RiskScoreRow) (Metal, time.Time) { return r.Metal, r.Date })

	s.logger.DebugContext(ctx, "upserting risk score",
		"metal", row.Metal.String(),
		"date", row.Date.Format(dateLayout),
		"composite", row.Composite,
		"level", row.Level.String(),
	)

	return s.writeRiskScores(rows)
}

// ListInventory returns all inventory snapshots for a metal, oldest first
func (s *Store) ListInventory(ctx context.Context, metal Metal) ([]InventorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.readInventory()
	if err != nil {
		return nil, err
	}

	var out []InventorySnapshot
	for _, r := range rows {
		if r.Metal == metal {
			out = append(out, r)
		}
	}
	return out, nil
}

// LatestInventory returns the most recent inventory snapshot for a metal
func (s *Store) LatestInventory(ctx context.Context, metal Metal) (InventorySnapshot, error) {
	history, err := s.ListInventory(ctx, metal)
	if err != nil {
		return InventorySnapshot{}, err
	}
	if len(history) == 0 {
		return InventorySnapshot{}, fmt.Errorf("no inventory snapshots for %q", metal)
	}
	return history[len(history)-1], nil
}

// LatestMarket returns the most recent market snapshot for a metal
func (s *Store) LatestMarket(ctx context.Context, metal Metal) (MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.readMarket()
	if err != nil {
		return MarketSnapshot{}, err
	}

	var latest *MarketSnapshot
	for i := range rows {
		if rows[i].Metal != metal {
			continue
		}
		if latest == nil || rows[i].Date.After(latest.Date) {
			latest = &rows[i]
		}
	}
	if latest == nil {
		return MarketSnapshot{}, fmt.Errorf("no market snapshots for %q", metal)
	}
	return *latest, nil
}

// InventoryChange30d returns the percent change in registered inventory over
// roughly 30 days, or nil when the history is too short. The comparison row
// is the newest snapshot at least 25 days older than the latest one.
func (s *Store) InventoryChange30d(ctx context.Context, metal Metal) (*float64, error) {
	history, err := s.ListInventory(ctx, metal)
	if err != nil {
		return nil, err
	}
	if len(history) < 2 {
		return nil, nil
	}

	latest := history[len(history)-1]
	cutoff := latest.Date.Add(-minInventoryLookback)

	var baseline *InventorySnapshot
	for i := range history[:len(history)-1] {
		if !history[i].Date.After(cutoff) {
			baseline = &history[i]
		}
	}
	if baseline == nil || baseline.Registered <= 0 {
		return nil, nil
	}

	change := (latest.Registered - baseline.Registered) / baseline.Registered * 100
	return &change, nil
}

// OIChangeYoY returns the percent change in open interest against the newest
// snapshot at least ~10 months old, or nil when the history is too short.
func (s *Store) OIChangeYoY(ctx context.Context, metal Metal) (*float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.readMarket()
	if err != nil {
		return nil, err
	}

	var history []MarketSnapshot
	for _, r := range rows {
		if r.Metal == metal {
			history = append(history, r)
		}
	}
	if len(history) < 2 {
		return nil, nil
	}

	latest := history[len(history)-1]
	cutoff := latest.Date.Add(-minOILookback)

	var baseline *MarketSnapshot
	for i := range history[:len(history)-1] {
		if !history[i].Date.After(cutoff) {
			baseline = &history[i]
		}
	}
	if baseline == nil || baseline.OpenInterest <= 0 {
		return nil, nil
	}

	change := (latest.OpenInterest - baseline.OpenInterest) / baseline.OpenInterest * 100
	return &change, nil
}

// RiskHistory returns all stored risk score rows for a metal, oldest first
func (s *Store) RiskHistory(ctx context.Context, metal Metal) ([]RiskScoreRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.readRiskScores()
	if err != nil {
		return nil, err
	}

	var out []RiskScoreRow
	for _, r := range rows {
		if r.Metal == metal {
			out = append(out, r)
		}
	}
	return out, nil
}

// LatestRiskScores returns the most recent stored row per metal, in the
// fixed metal display order.
func (s *Store) LatestRiskScores(ctx context.Context) ([]RiskScoreRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.readRiskScores()
	if err != nil {
		return nil, err
	}

	latest := make(map[Metal]RiskScoreRow)
	for _, r := range rows {
		if cur, ok := latest[r.Metal]; !ok || r.Date.After(cur.Date) {
			latest[r.Metal] = r
		}
	}

	var out []RiskScoreRow
	for _, metal := range AllMetals() {
		if r, ok := latest[metal]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// upsertRow replaces the row matching the new row's (metal, date) key or
// appends it, then restores (date, metal) ordering for stable file output.
func upsertRow[T any](rows []T, row T, key func(T) (Metal, time.Time)) []T {
	metal, date := key(row)

	replaced := false
	for i := range rows {
		m, d := key(rows[i])
		if m == metal && d.Equal(date) {
			rows[i] = row
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		mi, di := key(rows[i])
		mj, dj := key(rows[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return mi < mj
	})

	return rows
}

// CSV readers and writers. Files are small (one row per metal per report
// day), so full rewrite on upsert keeps the format trivially consistent.

func (s *Store) readInventory() ([]InventorySnapshot, error) {
	records, err := s.readFile(inventoryFile)
	if err != nil || records == nil {
		return nil, err
	}

	var rows []InventorySnapshot
	for i, rec := range records[1:] {
		if len(rec) < 6 {
			continue
		}
		date, err := time.Parse(dateLayout, rec[1])
		if err != nil {
			s.logger.Warn("skipping inventory row with bad date", "line", i+2, "value", rec[1])
			continue
		}
		rows = append(rows, InventorySnapshot{
			Metal:              Metal(rec[0]),
			Date:               date,
			Registered:         parseFloat(rec[2]),
			Eligible:           parseFloat(rec[3]),
			MonthlyDemand:      parseFloat(rec[4]),
			MTDDeliveryNotices: parseFloat(rec[5]),
		})
	}
	return rows, nil
}

func (s *Store) writeInventory(rows []InventorySnapshot) error {
	records := [][]string{{"Metal", "Date", "Registered", "Eligible", "Monthly_Demand", "MTD_Delivery_Notices"}}
	for _, r := range rows {
		records = append(records, []string{
			r.Metal.String(),
			r.Date.Format(dateLayout),
			formatFloat(r.Registered, 2),
			formatFloat(r.Eligible, 2),
			formatFloat(r.MonthlyDemand, 2),
			formatFloat(r.MTDDeliveryNotices, 2),
		})
	}
	return s.writeFile(inventoryFile, records)
}

func (s *Store) readMarket() ([]MarketSnapshot, error) {
	records, err := s.readFile(marketFile)
	if err != nil || records == nil {
		return nil, err
	}

	var rows []MarketSnapshot
	for i, rec := range records[1:] {
		if len(rec) < 4 {
			continue
		}
		date, err := time.Parse(dateLayout, rec[1])
		if err != nil {
			s.logger.Warn("skipping market row with bad date", "line", i+2, "value", rec[1])
			continue
		}
		rows = append(rows, MarketSnapshot{
			Metal:           Metal(rec[0]),
			Date:            date,
			OpenInterest:    parseFloat(rec[2]),
			PaperEquivalent: parseFloat(rec[3]),
		})
	}
	return rows, nil
}

func (s *Store) writeMarket(rows []MarketSnapshot) error {
	records := [][]string{{"Metal", "Date", "Open_Interest", "Paper_Equivalent"}}
	for _, r := range rows {
		records = append(records, []string{
			r.Metal.String(),
			r.Date.Format(dateLayout),
			formatFloat(r.OpenInterest, 0),
			formatFloat(r.PaperEquivalent, 2),
		})
	}
	return s.writeFile(marketFile, records)
}

func (s *Store) readRiskScores() ([]RiskScoreRow, error) {
	records, err := s.readFile(riskFile)
	if err != nil || records == nil {
		return nil, err
	}

	var rows []RiskScoreRow
	for i, rec := range records[1:] {
		if len(rec) < 11 {
			continue
		}
		date, err := time.Parse(dateLayout, rec[1])
		if err != nil {
			s.logger.Warn("skipping risk row with bad date", "line", i+2, "value", rec[1])
			continue
		}
		composite, _ := strconv.Atoi(rec[2])
		rows = append(rows, RiskScoreRow{
			Metal:                Metal(rec[0]),
			Date:                 date,
			Composite:            composite,
			Level:                risk.RiskLevel(rec[3]),
			CoverageRisk:         parseFloat(rec[4]),
			PaperPhysicalRisk:    parseFloat(rec[5]),
			InventoryTrendRisk:   parseFloat(rec[6]),
			DeliveryVelocityRisk: parseFloat(rec[7]),
			MarketActivityRisk:   parseFloat(rec[8]),
			DominantFactor:       rec[9],
			Commentary:           rec[10],
		})
	}
	return rows, nil
}

func (s *Store) writeRiskScores(rows []RiskScoreRow) error {
	records := [][]string{{
		"Metal", "Date", "Composite", "Level",
		"Coverage_Risk", "Paper_Physical_Risk", "Inventory_Trend_Risk",
		"Delivery_Velocity_Risk", "Market_Activity_Risk",
		"Dominant_Factor", "Commentary",
	}}
	for _, r := range rows {
		records = append(records, []string{
			r.Metal.String(),
			r.Date.Format(dateLayout),
			strconv.Itoa(r.Composite),
			r.Level.String(),
			formatFloat(r.CoverageRisk, 2),
			formatFloat(r.PaperPhysicalRisk, 2),
			formatFloat(r.InventoryTrendRisk, 2),
			formatFloat(r.DeliveryVelocityRisk, 2),
			formatFloat(r.MarketActivityRisk, 2),
			r.DominantFactor,
			r.Commentary,
		})
	}
	return s.writeFile(riskFile, records)
}

// readFile returns nil records (not an error) when the file does not exist yet
func (s *Store) readFile(name string) ([][]string, error) {
	path := filepath.Join(s.dir, name)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records, nil
}

func (s *Store) writeFile(name string, records [][]string) error {
	path := filepath.Join(s.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func formatFloat(value float64, precision int) string {
	return strconv.FormatFloat(value, 'f', precision, 64)
}
