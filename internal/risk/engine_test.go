package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigWeightsSumToOne(t *testing.T) {
	cfg := DefaultConfig()
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-12)
	assert.True(t, cfg.Weights.IsValid())
	assert.True(t, cfg.IsValid())
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "weights do not sum to one",
			cfg: Config{
				Weights:    Weights{Coverage: 0.5, PaperPhysical: 0.5, InventoryTrend: 0.5},
				Thresholds: LevelThresholds{Low: 25, Moderate: 50, High: 75},
			},
		},
		{
			name: "negative weight",
			cfg: Config{
				Weights:    Weights{Coverage: 1.2, PaperPhysical: -0.2, InventoryTrend: 0, DeliveryVelocity: 0, MarketActivity: 0},
				Thresholds: LevelThresholds{Low: 25, Moderate: 50, High: 75},
			},
		},
		{
			name: "non-increasing thresholds",
			cfg: Config{
				Weights:    DefaultConfig().Weights,
				Thresholds: LevelThresholds{Low: 50, Moderate: 50, High: 75},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestGetRiskLevelBoundaries(t *testing.T) {
	tests := []struct {
		score    int
		expected RiskLevel
	}{
		{0, LevelLow},
		{25, LevelLow},
		{26, LevelModerate},
		{50, LevelModerate},
		{51, LevelHigh},
		{75, LevelHigh},
		{76, LevelExtreme},
		{100, LevelExtreme},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, GetRiskLevel(tt.score), "score %d", tt.score)
	}
}

func TestCalculateQuietMarket(t *testing.T) {
	// Ample coverage, fully backed paper, growing inventory, shrinking OI:
	// every active sub-risk should sit at or near its minimum.
	change := 12.0
	oi := -15.0
	score := CalculateCompositeRiskScore(RiskFactors{
		CoverageRatio:      15,
		PaperPhysicalRatio: 0.8,
		InventoryChange30d: &change,
		OIChange:           &oi,
	})

	assert.InDelta(t, 0, score.Breakdown.CoverageRisk, 1e-9)
	assert.InDelta(t, 0, score.Breakdown.PaperPhysicalRisk, 1e-9)
	assert.InDelta(t, 0, score.Breakdown.InventoryTrendRisk, 1e-9)
	assert.InDelta(t, NeutralScore, score.Breakdown.DeliveryVelocityRisk, 1e-9)
	assert.InDelta(t, 17.5, score.Breakdown.MarketActivityRisk, 1e-9)
	assert.Equal(t, 10, score.Composite)
	assert.Equal(t, LevelLow, score.Level)
}

func TestCalculateStressedMarket(t *testing.T) {
	// Thin coverage, extreme paper leverage, collapsing inventory, surging OI.
	change := -40.0
	oi := 60.0
	score := CalculateCompositeRiskScore(RiskFactors{
		CoverageRatio:      1.5,
		PaperPhysicalRatio: 25,
		InventoryChange30d: &change,
		OIChange:           &oi,
	})

	assert.InDelta(t, 82.5, score.Breakdown.CoverageRisk, 1e-9)
	assert.Greater(t, score.Breakdown.PaperPhysicalRisk, 95.0)
	assert.GreaterOrEqual(t, score.Breakdown.InventoryTrendRisk, 85.0)
	assert.LessOrEqual(t, score.Breakdown.InventoryTrendRisk, 95.0)
	assert.Greater(t, score.Breakdown.MarketActivityRisk, 85.0)
	assert.Equal(t, LevelExtreme, score.Level)

	// The dominant factor must be whichever breakdown value is numerically
	// largest; with this input that is the paper/physical leverage at 96.25.
	assert.Equal(t, FactorPaperPhysical, score.DominantFactor)
	assert.Greater(t, score.Breakdown.PaperPhysicalRisk, score.Breakdown.CoverageRisk)
}

func TestCalculateIgnoresDeliveryVelocityInput(t *testing.T) {
	// The aggregator pins the delivery sub-score to the neutral value even
	// when a velocity is supplied.
	velocity := 9000.0
	withVelocity := CalculateCompositeRiskScore(RiskFactors{
		CoverageRatio:      3,
		PaperPhysicalRatio: 4,
		DeliveryVelocity:   &velocity,
	})
	withoutVelocity := CalculateCompositeRiskScore(RiskFactors{
		CoverageRatio:      3,
		PaperPhysicalRatio: 4,
	})

	assert.InDelta(t, NeutralScore, withVelocity.Breakdown.DeliveryVelocityRisk, 1e-9)
	assert.Equal(t, withoutVelocity, withVelocity)
}

func TestCalculateAllOptionalInputsMissing(t *testing.T) {
	score := CalculateCompositeRiskScore(RiskFactors{
		CoverageRatio:      5,
		PaperPhysicalRatio: 5,
	})

	assert.InDelta(t, NeutralScore, score.Breakdown.InventoryTrendRisk, 1e-9)
	assert.InDelta(t, NeutralScore, score.Breakdown.DeliveryVelocityRisk, 1e-9)
	assert.InDelta(t, NeutralScore, score.Breakdown.MarketActivityRisk, 1e-9)
	// 50*0.25 + 50*0.25 + 50*0.20 + 50*0.15 + 50*0.15 = 50
	assert.Equal(t, 50, score.Composite)
	assert.Equal(t, LevelModerate, score.Level)
}

func TestCalculateCompositeAlwaysInRange(t *testing.T) {
	// Sweep a grid of inputs including hostile extremes; the composite must
	// always land in [0,100] as an integer and classify to a valid level.
	coverages := []float64{0, 0.1, 1, 2.5, 6, 12, 1e6}
	papers := []float64{0, 1, 3, 12, 50, 1e6}
	changes := []*float64{nil, floatPtr(-1e6), floatPtr(-45), floatPtr(0), floatPtr(1e6)}
	ois := []*float64{nil, floatPtr(-1e6), floatPtr(0), floatPtr(1e6)}

	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	for _, cov := range coverages {
		for _, pp := range papers {
			for _, ch := range changes {
				for _, oi := range ois {
					score := engine.Calculate(RiskFactors{
						CoverageRatio:      cov,
						PaperPhysicalRatio: pp,
						InventoryChange30d: ch,
						OIChange:           oi,
					})
					assert.GreaterOrEqual(t, score.Composite, 0)
					assert.LessOrEqual(t, score.Composite, 100)
					assert.True(t, score.Level.IsValid())
					assert.NotEmpty(t, score.DominantFactor)
					assert.NotEmpty(t, score.Commentary)
				}
			}
		}
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	change := -22.0
	oi := 18.0
	factors := RiskFactors{
		CoverageRatio:      2.2,
		PaperPhysicalRatio: 7.7,
		InventoryChange30d: &change,
		OIChange:           &oi,
	}

	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	first := engine.Calculate(factors)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engine.Calculate(factors))
	}
}
