package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestCoverageRiskBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		expected float64
	}{
		{"twelve months coverage", 12, 0},
		{"eight months coverage", 8, 25},
		{"five months coverage", 5, 50},
		{"two months coverage", 2, 75},
		{"one month coverage", 1, 90},
		{"beyond twelve months", 20, 0},
		{"interpolated mid segment", 1.5, 82.5},
		{"half month coverage", 0.5, 95},
		{"zero coverage capped", 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CoverageRisk(tt.ratio), 1e-9)
		})
	}
}

func TestCoverageRiskMonotonic(t *testing.T) {
	// Risk must never increase as coverage improves
	ratios := []float64{0, 0.25, 0.5, 1, 1.5, 2, 3, 5, 6, 8, 10, 12, 15, 100}
	prev := CoverageRisk(ratios[0])
	for _, r := range ratios[1:] {
		score := CoverageRisk(r)
		assert.LessOrEqual(t, score, prev, "coverage risk increased at ratio %.2f", r)
		prev = score
	}
}

func TestPaperPhysicalRiskBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		expected float64
	}{
		{"fully backed", 1, 0},
		{"below fully backed", 0.5, 0},
		{"two to one", 2, 25},
		{"five to one", 5, 50},
		{"ten to one", 10, 75},
		{"twenty to one", 20, 95},
		{"extreme leverage", 25, 96.25},
		{"extreme leverage capped", 1000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, PaperPhysicalRisk(tt.ratio), 1e-9)
		})
	}
}

func TestPaperPhysicalRiskMonotonic(t *testing.T) {
	ratios := []float64{0, 1, 1.5, 2, 3, 5, 7, 10, 15, 20, 40, 100, 1000}
	prev := PaperPhysicalRisk(ratios[0])
	for _, r := range ratios[1:] {
		score := PaperPhysicalRisk(r)
		assert.GreaterOrEqual(t, score, prev, "paper/physical risk decreased at ratio %.2f", r)
		prev = score
	}
}

func TestInventoryTrendRisk(t *testing.T) {
	tests := []struct {
		name     string
		change   *float64
		expected float64
	}{
		{"nil change is neutral", nil, 50},
		{"severe drawdown", floatPtr(-50), 95},
		{"heavy drawdown", floatPtr(-30), 85},
		{"notable drawdown", floatPtr(-15), 70},
		{"mild drawdown", floatPtr(-5), 50},
		{"flat", floatPtr(0), 30},
		{"modest growth", floatPtr(5), 15},
		{"strong growth", floatPtr(10), 0},
		{"very strong growth", floatPtr(40), 0},
		{"collapse below table", floatPtr(-70), 97},
		{"collapse capped", floatPtr(-500), 100},
		{"interpolated drawdown", floatPtr(-40), 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, InventoryTrendRisk(tt.change), 1e-9)
		})
	}
}

func TestInventoryTrendRiskMonotonic(t *testing.T) {
	// Risk must never increase as the inventory trend improves
	changes := []float64{-200, -60, -50, -40, -30, -20, -15, -10, -5, -2, 0, 3, 5, 8, 10, 50}
	prev := InventoryTrendRisk(floatPtr(changes[0]))
	for _, ch := range changes[1:] {
		score := InventoryTrendRisk(floatPtr(ch))
		assert.LessOrEqual(t, score, prev, "inventory trend risk increased at change %.1f", ch)
		prev = score
	}
}

func TestDeliveryVelocityRisk(t *testing.T) {
	tests := []struct {
		name      string
		mtd       *float64
		inventory float64
		expected  float64
	}{
		{"nil deliveries is neutral", nil, 100000, 50},
		{"zero inventory is neutral", floatPtr(500), 0, 50},
		{"negative inventory is neutral", floatPtr(500), -10, 50},
		{"no deliveries", floatPtr(0), 100000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DeliveryVelocityRisk(tt.mtd, tt.inventory, DefaultDaysIntoMonth), 1e-9)
		})
	}

	t.Run("velocity ratio breakpoints", func(t *testing.T) {
		// Pick MTD counts that land the annualized velocity ratio exactly on
		// the table breakpoints: mtd = ratio * inventory * days / 365.
		inventory := 365000.0
		days := 10.0
		for _, tc := range []struct {
			ratio    float64
			expected float64
		}{
			{0.5, 25},
			{1, 50},
			{2, 75},
			{4, 90},
			{8, 100},
		} {
			mtd := tc.ratio * inventory * days / 365
			assert.InDelta(t, tc.expected, DeliveryVelocityRisk(&mtd, inventory, days), 1e-9,
				"velocity ratio %.1f", tc.ratio)
		}
	})
}

func TestMarketActivityRisk(t *testing.T) {
	tests := []struct {
		name     string
		oiChange *float64
		expected float64
	}{
		{"nil change is neutral", nil, 50},
		{"sharp decline", floatPtr(-20), 10},
		{"decline", floatPtr(-10), 25},
		{"flat", floatPtr(0), 40},
		{"growth", floatPtr(10), 55},
		{"strong growth", floatPtr(25), 70},
		{"surge", floatPtr(50), 85},
		{"extreme surge", floatPtr(60), 88},
		{"extreme surge capped", floatPtr(200), 100},
		{"below table clamps", floatPtr(-80), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MarketActivityRisk(tt.oiChange), 1e-9)
		})
	}
}

func TestMarketActivityRiskMonotonicPositive(t *testing.T) {
	changes := []float64{0, 5, 10, 20, 25, 40, 50, 75, 100}
	prev := MarketActivityRisk(floatPtr(changes[0]))
	for _, ch := range changes[1:] {
		score := MarketActivityRisk(floatPtr(ch))
		assert.GreaterOrEqual(t, score, prev, "market activity risk decreased at change %.1f", ch)
		prev = score
	}
}

func TestNormalizersNeverEscapeBounds(t *testing.T) {
	// Extreme inputs must stay within [0,100], never NaN or negative
	extremes := []float64{-1e9, -1000, -1, 0, 1e-9, 1, 1000, 1e9}
	for _, v := range extremes {
		for name, score := range map[string]float64{
			"coverage":       CoverageRisk(v),
			"paper_physical": PaperPhysicalRisk(v),
			"inventory":      InventoryTrendRisk(&v),
			"market":         MarketActivityRisk(&v),
			"delivery":       DeliveryVelocityRisk(&v, 1000, DefaultDaysIntoMonth),
		} {
			assert.False(t, score < 0 || score > 100 || score != score,
				"%s(%.0g) escaped bounds: %v", name, v, score)
		}
	}
}
