package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cmxcli/internal/config"
	"cmxcli/internal/importer"
	"cmxcli/internal/infrastructure"
	"cmxcli/internal/newsletter"
	"cmxcli/internal/risk"
	"cmxcli/internal/services"
	"cmxcli/internal/snapshot"
)

func main() {
	importDir := flag.String("in", "", "input directory for .xlsx report files (defaults to configured import dir)")
	reportsDir := flag.String("out", "", "output directory for the daily digest (defaults to configured reports dir)")
	skipDigest := flag.Bool("no-digest", false, "refresh scores without writing the HTML digest")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if *importDir == "" {
		*importDir = cfg.Paths.ImportDir
	}
	if *reportsDir == "" {
		*reportsDir = cfg.Paths.ReportsDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logger, *importDir, *reportsDir, *skipDigest); err != nil {
		logger.Error("Report run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, importDir, reportsDir string, skipDigest bool) error {
	store, err := snapshot.NewStore(cfg.Paths.DataDir, logger)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	engine, err := risk.NewEngine(cfg.Risk.EngineConfig())
	if err != nil {
		return fmt.Errorf("build risk engine: %w", err)
	}
	svc := services.NewRiskService(store, engine, nil, nil, logger)
	imp := importer.New(store, nil, logger)

	result, err := imp.ImportDir(ctx, importDir)
	if err != nil {
		return fmt.Errorf("import reports: %w", err)
	}
	logger.InfoContext(ctx, "import complete",
		slog.Int("files_processed", result.FilesProcessed),
		slog.Int("inventory_snapshots", result.InventorySnapshots),
		slog.Int("market_snapshots", result.MarketSnapshots))

	rows, err := svc.RefreshAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh risk scores: %w", err)
	}
	for _, row := range rows {
		logger.InfoContext(ctx, "risk score",
			slog.String("metal", string(row.Metal)),
			slog.Int("composite", row.Composite),
			slog.String("level", string(row.Level)))
	}

	if skipDigest {
		return nil
	}

	gen, err := newsletter.New(reportsDir, logger)
	if err != nil {
		return fmt.Errorf("initialize digest generator: %w", err)
	}

	inventory := make(map[snapshot.Metal]snapshot.InventorySnapshot)
	for _, row := range rows {
		inv, err := store.LatestInventory(ctx, row.Metal)
		if err != nil {
			continue
		}
		inventory[row.Metal] = inv
	}

	path, err := gen.Generate(rows[0].Date, rows, inventory)
	if err != nil {
		return fmt.Errorf("write digest: %w", err)
	}
	logger.InfoContext(ctx, "digest written", slog.String("path", path))
	return nil
}
