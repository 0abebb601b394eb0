package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmxcli/internal/config"
	"cmxcli/internal/infrastructure"
	"cmxcli/internal/snapshot"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()

	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ImportDir = filepath.Join(base, "imports")
	cfg.Paths.ReportsDir = filepath.Join(base, "reports")
	cfg.Paths.WebDir = filepath.Join(base, "web")
	cfg.Security.RateLimit.Enabled = false
	require.NoError(t, os.MkdirAll(cfg.Paths.ImportDir, 0o755))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    "cmx-pulse-test",
		ServiceVersion: Version,
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
		EnableMetrics:  false,
		EnableTracing:  false,
	}, logger)
	require.NoError(t, err)

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
	}
	require.NoError(t, app.initializeServices())
	app.setupRouter()
	require.NoError(t, app.setupScheduler())

	return app
}

func TestRouterServesHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	paths := []string{"/api/health", "/api/health/ready", "/api/health/live", "/api/version"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRouterRiskEndpointEmptyStore(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/risk", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_RISK_SCORES")
}

func TestRouterRejectsUnknownMetal(t *testing.T) {
	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/risk/uranium", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisCycleEndToEnd(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	// Seed the store directly; the importer's file parsing has its own tests
	require.NoError(t, app.Store.UpsertInventory(ctx, snapshot.InventorySnapshot{
		Metal:              snapshot.MetalGold,
		Date:               date,
		Registered:         20000,
		Eligible:           10000,
		MonthlyDemand:      40000,
		MTDDeliveryNotices: 1500,
	}))
	require.NoError(t, app.Store.UpsertMarket(ctx, snapshot.MarketSnapshot{
		Metal:           snapshot.MetalGold,
		Date:            date,
		OpenInterest:    400000,
		PaperEquivalent: 80000,
	}))

	require.NoError(t, app.RunAnalysisCycle(ctx))

	// Score is persisted and served
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/risk/gold", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "composite")

	// Digest is written
	digest := filepath.Join(app.Config.Paths.ReportsDir, "cmx_pulse_2026-08-28.html")
	_, err := os.Stat(digest)
	assert.NoError(t, err)
}

func TestAnalysisCycleFailsWithoutData(t *testing.T) {
	app := newTestApp(t)

	err := app.RunAnalysisCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh")
}
