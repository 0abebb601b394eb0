package risk

// RiskLevel is the ordinal classification of a composite score
type RiskLevel string

const (
	// LevelLow covers composite scores up to and including 25
	LevelLow RiskLevel = "LOW"
	// LevelModerate covers composite scores up to and including 50
	LevelModerate RiskLevel = "MODERATE"
	// LevelHigh covers composite scores up to and including 75
	LevelHigh RiskLevel = "HIGH"
	// LevelExtreme covers everything above 75
	LevelExtreme RiskLevel = "EXTREME"
)

// String returns the string representation of the risk level
func (l RiskLevel) String() string {
	return string(l)
}

// IsValid checks if the level is one of the four defined values
func (l RiskLevel) IsValid() bool {
	switch l {
	case LevelLow, LevelModerate, LevelHigh, LevelExtreme:
		return true
	default:
		return false
	}
}

// Display labels for the five factors, in declaration order. The order matters:
// the dominant-factor selector breaks exact ties in favor of the earlier label.
const (
	FactorCoverage         = "Coverage"
	FactorPaperPhysical    = "Paper/Physical Leverage"
	FactorInventoryTrend   = "Inventory Trend"
	FactorDeliveryVelocity = "Delivery Velocity"
	FactorMarketActivity   = "Market Activity"
)

// RiskFactors holds the raw market indicators for one metal on one report
// date. Pointer fields are optional: nil means the underlying history is
// unavailable and the corresponding normalizer substitutes the neutral score.
type RiskFactors struct {
	// CoverageRatio is registered physical inventory divided by estimated
	// monthly demand. Always present, >= 0.
	CoverageRatio float64 `json:"coverage_ratio" validate:"gte=0"`

	// PaperPhysicalRatio is open-interest-equivalent physical units divided by
	// registered inventory. Always present, >= 0 (1.0 = fully backed).
	PaperPhysicalRatio float64 `json:"paper_physical_ratio" validate:"gte=0"`

	// InventoryChange30d is the percent change in registered inventory over
	// roughly 30 days, nil when there is insufficient history.
	InventoryChange30d *float64 `json:"inventory_change_30d,omitempty"`

	// DeliveryVelocity is reserved. The aggregator currently substitutes the
	// neutral score for this factor regardless of the value supplied here.
	DeliveryVelocity *float64 `json:"delivery_velocity,omitempty"`

	// OIChange is the percent change in open interest, typically year over
	// year, nil when unavailable.
	OIChange *float64 `json:"oi_change,omitempty"`
}

// RiskScoreBreakdown holds the five normalized sub-risk scores. Each is
// conceptually in [0,100]; the tables cap extreme tails at 100.
type RiskScoreBreakdown struct {
	CoverageRisk         float64 `json:"coverage_risk"`
	PaperPhysicalRisk    float64 `json:"paper_physical_risk"`
	InventoryTrendRisk   float64 `json:"inventory_trend_risk"`
	DeliveryVelocityRisk float64 `json:"delivery_velocity_risk"`
	MarketActivityRisk   float64 `json:"market_activity_risk"`
}

// RiskScore is the public result of one engine invocation. It is created
// fresh on every call and never mutated afterwards.
type RiskScore struct {
	Composite      int                `json:"composite"`
	Level          RiskLevel          `json:"level"`
	Breakdown      RiskScoreBreakdown `json:"breakdown"`
	DominantFactor string             `json:"dominant_factor"`
	Commentary     string             `json:"commentary"`
}

// Weights holds the aggregation weight of each factor. The five weights must
// sum to 1.
type Weights struct {
	Coverage         float64 `json:"coverage"`
	PaperPhysical    float64 `json:"paper_physical"`
	InventoryTrend   float64 `json:"inventory_trend"`
	DeliveryVelocity float64 `json:"delivery_velocity"`
	MarketActivity   float64 `json:"market_activity"`
}

// Sum returns the total of the five weights
func (w Weights) Sum() float64 {
	return w.Coverage + w.PaperPhysical + w.InventoryTrend + w.DeliveryVelocity + w.MarketActivity
}

// IsValid checks if weights are non-negative and sum to 1
func (w Weights) IsValid() bool {
	sum := w.Sum()
	return w.Coverage >= 0 && w.PaperPhysical >= 0 && w.InventoryTrend >= 0 &&
		w.DeliveryVelocity >= 0 && w.MarketActivity >= 0 &&
		sum > 0.999 && sum < 1.001 // Allow small floating point errors
}

// LevelThresholds holds the inclusive upper bound of each level below EXTREME
type LevelThresholds struct {
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
}

// IsValid checks that the thresholds are strictly increasing
func (t LevelThresholds) IsValid() bool {
	return t.Low > 0 && t.Moderate > t.Low && t.High > t.Moderate
}

// Config parameterizes the engine. Passing it explicitly keeps the engine a
// pure, fully parameterized transform with no module-level mutable state.
type Config struct {
	Weights    Weights         `json:"weights"`
	Thresholds LevelThresholds `json:"thresholds"`
}

// IsValid checks if the configuration is usable
func (c Config) IsValid() bool {
	return c.Weights.IsValid() && c.Thresholds.IsValid()
}

// DefaultConfig returns the production weights and level thresholds
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Coverage:         0.25,
			PaperPhysical:    0.25,
			InventoryTrend:   0.20,
			DeliveryVelocity: 0.15,
			MarketActivity:   0.15,
		},
		Thresholds: LevelThresholds{
			Low:      25,
			Moderate: 50,
			High:     75,
		},
	}
}

const (
	// NeutralScore is substituted when an optional historical input is
	// unavailable. It represents "no signal" rather than "no risk".
	NeutralScore = 50.0

	// DefaultDaysIntoMonth is assumed when annualizing month-to-date delivery
	// notices without an explicit day count.
	DefaultDaysIntoMonth = 29.0
)
