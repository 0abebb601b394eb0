package newsletter

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmxcli/internal/risk"
	"cmxcli/internal/snapshot"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleRows() []snapshot.RiskScoreRow {
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	return []snapshot.RiskScoreRow{
		{
			Metal:          snapshot.MetalGold,
			Date:           date,
			Composite:      34,
			Level:          risk.LevelModerate,
			DominantFactor: risk.FactorCoverage,
			Commentary:     "Coverage is comfortable.",
		},
		{
			Metal:          snapshot.MetalSilver,
			Date:           date,
			Composite:      81,
			Level:          risk.LevelExtreme,
			DominantFactor: risk.FactorPaperPhysical,
			Commentary:     "Paper leverage is stretched.",
		},
	}
}

func TestGenerateWritesDigest(t *testing.T) {
	dir := t.TempDir()
	gen, err := New(dir, testLogger())
	require.NoError(t, err)

	inventory := map[snapshot.Metal]snapshot.InventorySnapshot{
		snapshot.MetalSilver: {
			Metal:      snapshot.MetalSilver,
			Registered: 28500000,
			Eligible:   120000000,
		},
	}

	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	path, err := gen.Generate(date, sampleRows(), inventory)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cmx_pulse_2026-08-28.html"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(body)

	assert.Contains(t, html, "August 28, 2026")
	assert.Contains(t, html, "Silver")
	assert.Contains(t, html, "EXTREME")
	assert.Contains(t, html, "Paper leverage is stretched.")
	assert.Contains(t, html, "28,500,000")

	// The extreme silver row sorts above moderate gold and raises an alert
	assert.Less(t, strings.Index(html, "Silver"), strings.Index(html, "Gold"))
	assert.Contains(t, html, "class=\"alert\"")
}

func TestGenerateNoAlertsForCalmMarket(t *testing.T) {
	gen, err := New(t.TempDir(), testLogger())
	require.NoError(t, err)

	rows := []snapshot.RiskScoreRow{
		{
			Metal:          snapshot.MetalGold,
			Date:           time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
			Composite:      18,
			Level:          risk.LevelLow,
			DominantFactor: risk.FactorCoverage,
			Commentary:     "All quiet.",
		},
	}

	path, err := gen.Generate(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), rows, nil)
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "class=\"alert\"")
}

func TestGenerateRejectsEmptyRows(t *testing.T) {
	gen, err := New(t.TempDir(), testLogger())
	require.NoError(t, err)

	_, err = gen.Generate(time.Now(), nil, nil)
	assert.Error(t, err)
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{28500000, "28,500,000"},
		{1234567.89, "1,234,568"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatQuantity(tt.in))
	}
}
