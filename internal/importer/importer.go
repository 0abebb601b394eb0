// Package importer ingests daily exchange report files into the snapshot
// store. Warehouse stocks arrive as Excel workbooks, futures market data as
// JSON exports; both are keyed by the report date in the filename or payload
// and upserted so reruns are safe.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"cmxcli/internal/infrastructure"
	"cmxcli/internal/snapshot"
)

// parallelism caps concurrent file parses; workbooks decompress in memory
const parallelism = 4

// Store is the subset of the snapshot store the importer writes to
type Store interface {
	UpsertInventory(ctx context.Context, snap snapshot.InventorySnapshot) error
	UpsertMarket(ctx context.Context, snap snapshot.MarketSnapshot) error
}

// Result summarizes one import run
type Result struct {
	FilesProcessed     int `json:"files_processed"`
	InventorySnapshots int `json:"inventory_snapshots"`
	MarketSnapshots    int `json:"market_snapshots"`
}

// Importer scans a directory of daily report files and loads them into the
// snapshot store.
type Importer struct {
	store   Store
	metrics *infrastructure.Metrics
	logger  *slog.Logger
}

// New creates an importer writing to the given store. metrics may be nil.
func New(store Store, metrics *infrastructure.Metrics, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, metrics: metrics, logger: logger}
}

// ImportDir parses every recognized report file under dir and upserts the
// extracted snapshots. Files are parsed concurrently; the first parse or
// store error aborts the run.
func (im *Importer) ImportDir(ctx context.Context, dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("read import directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	results := make(chan Result, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".xlsx":
			g.Go(func() error {
				n, err := im.importWarehouseFile(ctx, path)
				if err != nil {
					return err
				}
				results <- Result{FilesProcessed: 1, InventorySnapshots: n}
				return nil
			})
		case ".json":
			g.Go(func() error {
				n, err := im.importMarketFile(ctx, path)
				if err != nil {
					return err
				}
				results <- Result{FilesProcessed: 1, MarketSnapshots: n}
				return nil
			})
		default:
			im.logger.DebugContext(ctx, "skipping unrecognized file", "file", entry.Name())
		}
	}

	if err := g.Wait(); err != nil {
		infrastructure.RecordImportRun(ctx, im.metrics, 0, 0, err)
		return Result{}, err
	}
	close(results)

	var total Result
	for r := range results {
		total.FilesProcessed += r.FilesProcessed
		total.InventorySnapshots += r.InventorySnapshots
		total.MarketSnapshots += r.MarketSnapshots
	}

	infrastructure.RecordImportRun(ctx, im.metrics,
		total.FilesProcessed, total.InventorySnapshots+total.MarketSnapshots, nil)

	im.logger.InfoContext(ctx, "import complete",
		"files", total.FilesProcessed,
		"inventory_snapshots", total.InventorySnapshots,
		"market_snapshots", total.MarketSnapshots,
	)
	return total, nil
}

func (im *Importer) importWarehouseFile(ctx context.Context, path string) (int, error) {
	snaps, err := ParseWarehouseFile(path)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	for _, s := range snaps {
		if err := im.store.UpsertInventory(ctx, s); err != nil {
			return 0, fmt.Errorf("store inventory from %s: %w", filepath.Base(path), err)
		}
	}
	im.logger.DebugContext(ctx, "imported warehouse report",
		"file", filepath.Base(path),
		"metals", len(snaps))
	return len(snaps), nil
}

func (im *Importer) importMarketFile(ctx context.Context, path string) (int, error) {
	snaps, err := ParseMarketFile(path)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	for _, s := range snaps {
		if err := im.store.UpsertMarket(ctx, s); err != nil {
			return 0, fmt.Errorf("store market data from %s: %w", filepath.Base(path), err)
		}
	}
	im.logger.DebugContext(ctx, "imported market report",
		"file", filepath.Base(path),
		"metals", len(snaps))
	return len(snaps), nil
}
