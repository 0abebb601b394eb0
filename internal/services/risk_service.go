package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cmxcli/internal/infrastructure"
	"cmxcli/internal/risk"
	"cmxcli/internal/snapshot"
)

// SnapshotStore is the persistence surface the risk service depends on
type SnapshotStore interface {
	LatestInventory(ctx context.Context, metal snapshot.Metal) (snapshot.InventorySnapshot, error)
	ListInventory(ctx context.Context, metal snapshot.Metal) ([]snapshot.InventorySnapshot, error)
	LatestMarket(ctx context.Context, metal snapshot.Metal) (snapshot.MarketSnapshot, error)
	InventoryChange30d(ctx context.Context, metal snapshot.Metal) (*float64, error)
	OIChangeYoY(ctx context.Context, metal snapshot.Metal) (*float64, error)
	UpsertRiskScore(ctx context.Context, row snapshot.RiskScoreRow) error
	LatestRiskScores(ctx context.Context) ([]snapshot.RiskScoreRow, error)
	RiskHistory(ctx context.Context, metal snapshot.Metal) ([]snapshot.RiskScoreRow, error)
}

// Broadcaster pushes refreshed scores to connected dashboard clients
type Broadcaster interface {
	BroadcastRiskUpdate(rows []snapshot.RiskScoreRow)
}

// RiskService assembles raw factors from stored snapshots, runs the scoring
// engine, and persists the results.
type RiskService struct {
	store   SnapshotStore
	engine  *risk.Engine
	hub     Broadcaster
	metrics *infrastructure.Metrics
	logger  *slog.Logger
}

// NewRiskService creates a risk service. hub and metrics may be nil.
func NewRiskService(store SnapshotStore, engine *risk.Engine, hub Broadcaster, metrics *infrastructure.Metrics, logger *slog.Logger) *RiskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiskService{
		store:   store,
		engine:  engine,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
	}
}

// AssembleFactors builds the engine input for a metal from the latest stored
// snapshots. The two ratio factors are required; the optional factors are nil
// when the stored history cannot support them.
func (s *RiskService) AssembleFactors(ctx context.Context, metal snapshot.Metal) (risk.RiskFactors, time.Time, error) {
	inv, err := s.store.LatestInventory(ctx, metal)
	if err != nil {
		return risk.RiskFactors{}, time.Time{}, fmt.Errorf("assemble factors for %s: %w", metal, err)
	}
	if inv.Registered <= 0 {
		return risk.RiskFactors{}, time.Time{}, fmt.Errorf("assemble factors for %s: no registered inventory", metal)
	}
	if inv.MonthlyDemand <= 0 {
		return risk.RiskFactors{}, time.Time{}, fmt.Errorf("assemble factors for %s: no monthly demand estimate", metal)
	}

	mkt, err := s.store.LatestMarket(ctx, metal)
	if err != nil {
		return risk.RiskFactors{}, time.Time{}, fmt.Errorf("assemble factors for %s: %w", metal, err)
	}

	factors := risk.RiskFactors{
		CoverageRatio:      inv.Registered / inv.MonthlyDemand,
		PaperPhysicalRatio: mkt.PaperEquivalent / inv.Registered,
	}

	if change, err := s.store.InventoryChange30d(ctx, metal); err != nil {
		s.logger.WarnContext(ctx, "inventory trend unavailable", "metal", metal.String(), "error", err)
	} else {
		factors.InventoryChange30d = change
	}

	if change, err := s.store.OIChangeYoY(ctx, metal); err != nil {
		s.logger.WarnContext(ctx, "open interest trend unavailable", "metal", metal.String(), "error", err)
	} else {
		factors.OIChange = change
	}

	notices := inv.MTDDeliveryNotices
	factors.DeliveryVelocity = &notices

	return factors, inv.Date, nil
}

// RefreshMetal recomputes and persists the risk score for one metal
func (s *RiskService) RefreshMetal(ctx context.Context, metal snapshot.Metal) (snapshot.RiskScoreRow, error) {
	start := time.Now()

	factors, date, err := s.AssembleFactors(ctx, metal)
	if err != nil {
		infrastructure.RecordRiskRefresh(ctx, s.metrics, metal.String(), time.Since(start), false)
		return snapshot.RiskScoreRow{}, err
	}

	score := s.engine.Calculate(factors)
	row := snapshot.NewRiskScoreRow(metal, date, score)

	if err := s.store.UpsertRiskScore(ctx, row); err != nil {
		infrastructure.RecordRiskRefresh(ctx, s.metrics, metal.String(), time.Since(start), false)
		infrastructure.RecordError(ctx, err)
		return snapshot.RiskScoreRow{}, fmt.Errorf("persist risk score for %s: %w", metal, err)
	}

	infrastructure.RecordRiskRefresh(ctx, s.metrics, metal.String(), time.Since(start), true)
	infrastructure.RecordCompositeScore(ctx, s.metrics, metal.String(), row.Composite)

	s.logger.InfoContext(ctx, "risk score refreshed",
		"metal", metal.String(),
		"date", date.Format("2006-01-02"),
		"composite", score.Composite,
		"level", score.Level.String(),
		"dominant_factor", score.DominantFactor,
	)
	return row, nil
}

// RefreshAll recomputes scores for every tracked metal. Metals with missing
// data are skipped with a warning; the refresh fails only when no metal could
// be scored.
func (s *RiskService) RefreshAll(ctx context.Context) ([]snapshot.RiskScoreRow, error) {
	var rows []snapshot.RiskScoreRow
	var lastErr error

	for _, metal := range snapshot.AllMetals() {
		row, err := s.RefreshMetal(ctx, metal)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping metal in refresh", "metal", metal.String(), "error", err)
			lastErr = err
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("refresh produced no scores: %w", lastErr)
	}

	if s.hub != nil {
		s.hub.BroadcastRiskUpdate(rows)
	}
	return rows, nil
}

// Latest returns the most recent stored score per metal
func (s *RiskService) Latest(ctx context.Context) ([]snapshot.RiskScoreRow, error) {
	return s.store.LatestRiskScores(ctx)
}

// History returns the stored score series for one metal, oldest first
func (s *RiskService) History(ctx context.Context, metal snapshot.Metal) ([]snapshot.RiskScoreRow, error) {
	if !metal.IsValid() {
		return nil, fmt.Errorf("unknown metal %q", metal)
	}
	return s.store.RiskHistory(ctx, metal)
}

// LatestInventory returns the most recent inventory snapshot for one metal
func (s *RiskService) LatestInventory(ctx context.Context, metal snapshot.Metal) (snapshot.InventorySnapshot, error) {
	if !metal.IsValid() {
		return snapshot.InventorySnapshot{}, fmt.Errorf("unknown metal %q", metal)
	}
	return s.store.LatestInventory(ctx, metal)
}

// InventoryHistory returns the stored inventory snapshots for a metal,
// oldest first.
func (s *RiskService) InventoryHistory(ctx context.Context, metal snapshot.Metal) ([]snapshot.InventorySnapshot, error) {
	if !metal.IsValid() {
		return nil, fmt.Errorf("unknown metal %q", metal)
	}
	return s.store.ListInventory(ctx, metal)
}

// Preview scores caller-supplied factors without touching stored data
func (s *RiskService) Preview(ctx context.Context, factors risk.RiskFactors) risk.RiskScore {
	return s.engine.Calculate(factors)
}
