package risk

import "sort"

// factorEntry pairs a factor label with its sub-risk score
type factorEntry struct {
	label string
	value float64
}

// entries returns the breakdown in fixed declaration order
func (b RiskScoreBreakdown) entries() []factorEntry {
	return []factorEntry{
		{FactorCoverage, b.CoverageRisk},
		{FactorPaperPhysical, b.PaperPhysicalRisk},
		{FactorInventoryTrend, b.InventoryTrendRisk},
		{FactorDeliveryVelocity, b.DeliveryVelocityRisk},
		{FactorMarketActivity, b.MarketActivityRisk},
	}
}

// DominantFactor returns the display label of the highest-scoring breakdown
// entry. The stable sort over the declaration-ordered list means an exact tie
// goes to the earlier-declared factor.
func DominantFactor(b RiskScoreBreakdown) string {
	entries := b.entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].value > entries[j].value
	})
	return entries[0].label
}
