package risk

import (
	"fmt"
	"math"
)

// Engine computes composite risk scores using a fixed configuration.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine after validating the configuration
func NewEngine(cfg Config) (*Engine, error) {
	if !cfg.Weights.IsValid() {
		return nil, fmt.Errorf("invalid weights: sum %.4f must be 1.0", cfg.Weights.Sum())
	}
	if !cfg.Thresholds.IsValid() {
		return nil, fmt.Errorf("invalid level thresholds: %+v", cfg.Thresholds)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Calculate converts raw market indicators into a composite risk score.
// Pure and deterministic: the same factors always produce the same score.
func (e *Engine) Calculate(factors RiskFactors) RiskScore {
	breakdown := RiskScoreBreakdown{
		CoverageRisk:       CoverageRisk(factors.CoverageRatio),
		PaperPhysicalRisk:  PaperPhysicalRisk(factors.PaperPhysicalRatio),
		InventoryTrendRisk: InventoryTrendRisk(factors.InventoryChange30d),
		// The delivery-velocity factor is not yet wired to live deliveries
		// data; the sub-score is pinned to the neutral value regardless of
		// factors.DeliveryVelocity. Changing this would shift every composite
		// score and dominant factor, so it stays until the data is threaded
		// through from the caller.
		DeliveryVelocityRisk: NeutralScore,
		MarketActivityRisk:   MarketActivityRisk(factors.OIChange),
	}

	w := e.cfg.Weights
	weighted := breakdown.CoverageRisk*w.Coverage +
		breakdown.PaperPhysicalRisk*w.PaperPhysical +
		breakdown.InventoryTrendRisk*w.InventoryTrend +
		breakdown.DeliveryVelocityRisk*w.DeliveryVelocity +
		breakdown.MarketActivityRisk*w.MarketActivity

	composite := int(math.Round(weighted))
	if composite < 0 {
		composite = 0
	}
	if composite > 100 {
		composite = 100
	}

	level := e.Level(composite)

	return RiskScore{
		Composite:      composite,
		Level:          level,
		Breakdown:      breakdown,
		DominantFactor: DominantFactor(breakdown),
		Commentary:     Commentary(breakdown, level),
	}
}

// Level classifies a composite score into one of the four risk levels.
// Boundaries are inclusive on the upper end.
func (e *Engine) Level(score int) RiskLevel {
	t := e.cfg.Thresholds
	switch {
	case score <= t.Low:
		return LevelLow
	case score <= t.Moderate:
		return LevelModerate
	case score <= t.High:
		return LevelHigh
	default:
		return LevelExtreme
	}
}

// CalculateCompositeRiskScore scores factors with the default configuration.
// Convenience for callers that do not need a parameterized engine.
func CalculateCompositeRiskScore(factors RiskFactors) RiskScore {
	engine := &Engine{cfg: DefaultConfig()}
	return engine.Calculate(factors)
}

// GetRiskLevel classifies a composite score with the default thresholds
func GetRiskLevel(score int) RiskLevel {
	engine := &Engine{cfg: DefaultConfig()}
	return engine.Level(score)
}
