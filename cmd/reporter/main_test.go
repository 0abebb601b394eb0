package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmxcli/internal/config"
	"cmxcli/internal/snapshot"
)

func newRunConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ImportDir = filepath.Join(base, "imports")
	cfg.Paths.ReportsDir = filepath.Join(base, "reports")
	require.NoError(t, os.MkdirAll(cfg.Paths.ImportDir, 0o755))

	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRunWritesDigestFromSeededStore(t *testing.T) {
	cfg := newRunConfig(t)
	logger := quietLogger()
	ctx := context.Background()
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	// Seed the snapshot files run() will reopen; workbook parsing has its
	// own tests in internal/importer
	store, err := snapshot.NewStore(cfg.Paths.DataDir, logger)
	require.NoError(t, err)
	require.NoError(t, store.UpsertInventory(ctx, snapshot.InventorySnapshot{
		Metal:              snapshot.MetalSilver,
		Date:               date,
		Registered:         30000000,
		Eligible:           250000000,
		MonthlyDemand:      100000000,
		MTDDeliveryNotices: 2000,
	}))
	require.NoError(t, store.UpsertMarket(ctx, snapshot.MarketSnapshot{
		Metal:           snapshot.MetalSilver,
		Date:            date,
		OpenInterest:    140000,
		PaperEquivalent: 700000000,
	}))

	require.NoError(t, run(ctx, cfg, logger, cfg.Paths.ImportDir, cfg.Paths.ReportsDir, false))

	digest := filepath.Join(cfg.Paths.ReportsDir, "cmx_pulse_2026-08-28.html")
	_, err = os.Stat(digest)
	assert.NoError(t, err)
}

func TestRunSkipDigestWritesNoFiles(t *testing.T) {
	cfg := newRunConfig(t)
	logger := quietLogger()
	ctx := context.Background()
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	store, err := snapshot.NewStore(cfg.Paths.DataDir, logger)
	require.NoError(t, err)
	require.NoError(t, store.UpsertInventory(ctx, snapshot.InventorySnapshot{
		Metal:              snapshot.MetalGold,
		Date:               date,
		Registered:         20000,
		Eligible:           10000,
		MonthlyDemand:      40000,
		MTDDeliveryNotices: 1500,
	}))
	require.NoError(t, store.UpsertMarket(ctx, snapshot.MarketSnapshot{
		Metal:           snapshot.MetalGold,
		Date:            date,
		OpenInterest:    400000,
		PaperEquivalent: 80000,
	}))

	require.NoError(t, run(ctx, cfg, logger, cfg.Paths.ImportDir, cfg.Paths.ReportsDir, true))

	_, err = os.Stat(cfg.Paths.ReportsDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRunFailsWithNoData(t *testing.T) {
	cfg := newRunConfig(t)

	err := run(context.Background(), cfg, quietLogger(), cfg.Paths.ImportDir, cfg.Paths.ReportsDir, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh")
}
