package risk

import "strings"

// maxCommentaryFragments caps how many threshold messages make it into the
// final commentary even when more qualify.
const maxCommentaryFragments = 2

// levelCommentary is the fallback sentence used when no threshold message
// fires for the breakdown.
var levelCommentary = map[RiskLevel]string{
	LevelLow:      "Physical market conditions appear stable.",
	LevelModerate: "Mixed signals across physical and futures markets.",
	LevelHigh:     "Multiple stress indicators warrant close monitoring.",
	LevelExtreme:  "Severe stress across both physical and paper markets.",
}

// Commentary produces a one-to-two sentence explanation from the breakdown.
// Threshold messages are evaluated in a fixed order and only the first two
// that fire are kept; if none fire, the level's fallback sentence is used.
func Commentary(b RiskScoreBreakdown, level RiskLevel) string {
	var fragments []string

	switch {
	case b.CoverageRisk >= 70:
		fragments = append(fragments, "Physical supply is critically tight")
	case b.CoverageRisk >= 50:
		fragments = append(fragments, "Supply coverage is below comfortable levels")
	}

	switch {
	case b.PaperPhysicalRisk >= 70:
		fragments = append(fragments, "Paper claims significantly exceed physical availability")
	case b.PaperPhysicalRisk >= 50:
		fragments = append(fragments, "Elevated paper leverage on physical metal")
	}

	switch {
	case b.InventoryTrendRisk >= 70:
		fragments = append(fragments, "Inventory declining rapidly")
	case b.InventoryTrendRisk >= 50:
		fragments = append(fragments, "Inventory trend is negative")
	}

	if b.MarketActivityRisk >= 70 {
		fragments = append(fragments, "Rising speculative interest")
	}

	if len(fragments) == 0 {
		return levelCommentary[level]
	}

	if len(fragments) > maxCommentaryFragments {
		fragments = fragments[:maxCommentaryFragments]
	}

	return strings.Join(fragments, ". ") + "."
}
