package risk

import "math"

// Breakpoint tables for the five normalizers. The tail closures implement the
// unbounded linear extrapolation at the extreme end of each curve, capped at
// 100 so no input produces NaN, a negative score, or a value above the scale.
var (
	// Higher coverage means lower risk. Below one month of coverage the risk
	// grows toward 100 as the ratio approaches zero.
	coverageCurve = curve{
		points: []curvePoint{
			{x: 1, y: 90},
			{x: 2, y: 75},
			{x: 5, y: 50},
			{x: 8, y: 25},
			{x: 12, y: 0},
		},
		below: func(ratio float64) float64 {
			return math.Min(100, 90+(1-ratio)*10)
		},
	}

	// More paper claims per physical unit means higher risk. At or below 1.0
	// every claim is backed and the risk is zero.
	paperPhysicalCurve = curve{
		points: []curvePoint{
			{x: 1, y: 0},
			{x: 2, y: 25},
			{x: 5, y: 50},
			{x: 10, y: 75},
			{x: 20, y: 95},
		},
		above: func(ratio float64) float64 {
			return math.Min(100, 95+(ratio-20)*0.25)
		},
	}

	// Growing inventory is low risk, shrinking inventory is high risk.
	inventoryTrendCurve = curve{
		points: []curvePoint{
			{x: -50, y: 95},
			{x: -30, y: 85},
			{x: -15, y: 70},
			{x: -5, y: 50},
			{x: 0, y: 30},
			{x: 5, y: 15},
			{x: 10, y: 0},
		},
		below: func(pctChange float64) float64 {
			return math.Min(100, 95+math.Abs(pctChange+50)*0.1)
		},
	}

	// Velocity ratio = annualized delivery rate / registered inventory.
	deliveryVelocityCurve = curve{
		points: []curvePoint{
			{x: 0, y: 0},
			{x: 0.5, y: 25},
			{x: 1, y: 50},
			{x: 2, y: 75},
			{x: 4, y: 90},
		},
		above: func(velocityRatio float64) float64 {
			return math.Min(100, 90+(velocityRatio-4)*2.5)
		},
	}

	// Declining open interest is lower risk (longs closing out), rising open
	// interest layers more paper claims on the same metal.
	marketActivityCurve = curve{
		points: []curvePoint{
			{x: -20, y: 10},
			{x: -10, y: 25},
			{x: 0, y: 40},
			{x: 10, y: 55},
			{x: 25, y: 70},
			{x: 50, y: 85},
		},
		above: func(oiChange float64) float64 {
			return math.Min(100, 85+(oiChange-50)*0.3)
		},
	}
)

// CoverageRisk scores the coverage ratio (registered inventory / monthly
// demand). Accepts any real ratio including zero.
func CoverageRisk(ratio float64) float64 {
	return coverageCurve.score(ratio)
}

// PaperPhysicalRisk scores the paper/physical ratio (open-interest-equivalent
// units / registered inventory).
func PaperPhysicalRisk(ratio float64) float64 {
	return paperPhysicalCurve.score(ratio)
}

// InventoryTrendRisk scores the ~30-day percent change in registered
// inventory. A nil change means insufficient history and resolves to the
// neutral score.
func InventoryTrendRisk(pctChange *float64) float64 {
	if pctChange == nil {
		return NeutralScore
	}
	return inventoryTrendCurve.score(*pctChange)
}

// DeliveryVelocityRisk scores month-to-date delivery notices against
// registered inventory. The MTD count is annualized from the daily rate
// before being compared to inventory. Returns the neutral score when the
// MTD count is unavailable or the inventory is not positive, which also
// keeps the division structurally safe.
func DeliveryVelocityRisk(mtdDeliveries *float64, registeredInventory, daysIntoMonth float64) float64 {
	if mtdDeliveries == nil || registeredInventory <= 0 {
		return NeutralScore
	}
	annualized := *mtdDeliveries / daysIntoMonth * 365
	velocityRatio := annualized / registeredInventory
	return deliveryVelocityCurve.score(velocityRatio)
}

// MarketActivityRisk scores the percent change in open interest, typically
// year over year. A nil change resolves to the neutral score.
func MarketActivityRisk(oiChange *float64) float64 {
	if oiChange == nil {
		return NeutralScore
	}
	return marketActivityCurve.score(*oiChange)
}
