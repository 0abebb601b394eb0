package snapshot

import (
	"time"

	"cmxcli/internal/risk"
)

// Metal identifies a COMEX metals contract complex
type Metal string

const (
	MetalGold      Metal = "gold"
	MetalSilver    Metal = "silver"
	MetalCopper    Metal = "copper"
	MetalPlatinum  Metal = "platinum"
	MetalPalladium Metal = "palladium"
)

// AllMetals lists the tracked metals in display order
func AllMetals() []Metal {
	return []Metal{MetalGold, MetalSilver, MetalCopper, MetalPlatinum, MetalPalladium}
}

// String returns the string representation of the metal
func (m Metal) String() string {
	return string(m)
}

// IsValid checks if the metal is one of the tracked contracts
func (m Metal) IsValid() bool {
	for _, known := range AllMetals() {
		if m == known {
			return true
		}
	}
	return false
}

// InventorySnapshot is one day's warehouse inventory picture for a metal.
// Quantities are in troy ounces (pounds for copper).
type InventorySnapshot struct {
	Metal              Metal     `json:"metal"`
	Date               time.Time `json:"date"`
	Registered         float64   `json:"registered"`
	Eligible           float64   `json:"eligible"`
	MonthlyDemand      float64   `json:"monthly_demand"`
	MTDDeliveryNotices float64   `json:"mtd_delivery_notices"`
}

// IsValid checks if the snapshot can be stored
func (s InventorySnapshot) IsValid() bool {
	return s.Metal.IsValid() && !s.Date.IsZero() &&
		s.Registered >= 0 && s.Eligible >= 0 &&
		s.MonthlyDemand >= 0 && s.MTDDeliveryNotices >= 0
}

// Total returns registered plus eligible inventory
func (s InventorySnapshot) Total() float64 {
	return s.Registered + s.Eligible
}

// MarketSnapshot is one day's futures market picture for a metal.
// PaperEquivalent is open interest converted to physical units using the
// contract size, so it compares directly against registered inventory.
type MarketSnapshot struct {
	Metal           Metal     `json:"metal"`
	Date            time.Time `json:"date"`
	OpenInterest    float64   `json:"open_interest"`
	PaperEquivalent float64   `json:"paper_equivalent"`
}

// IsValid checks if the snapshot can be stored
func (s MarketSnapshot) IsValid() bool {
	return s.Metal.IsValid() && !s.Date.IsZero() &&
		s.OpenInterest >= 0 && s.PaperEquivalent >= 0
}

// RiskScoreRow is one stored engine result, keyed by (metal, report date)
// with upsert-on-conflict semantics. Columns mirror every RiskScore field.
type RiskScoreRow struct {
	Metal                Metal          `json:"metal"`
	Date                 time.Time      `json:"date"`
	Composite            int            `json:"composite"`
	Level                risk.RiskLevel `json:"level"`
	CoverageRisk         float64        `json:"coverage_risk"`
	PaperPhysicalRisk    float64        `json:"paper_physical_risk"`
	InventoryTrendRisk   float64        `json:"inventory_trend_risk"`
	DeliveryVelocityRisk float64        `json:"delivery_velocity_risk"`
	MarketActivityRisk   float64        `json:"market_activity_risk"`
	DominantFactor       string         `json:"dominant_factor"`
	Commentary           string         `json:"commentary"`
}

// NewRiskScoreRow flattens an engine result into a storable row
func NewRiskScoreRow(metal Metal, date time.Time, score risk.RiskScore) RiskScoreRow {
	return RiskScoreRow{
		Metal:                metal,
		Date:                 date,
		Composite:            score.Composite,
		Level:                score.Level,
		CoverageRisk:         score.Breakdown.CoverageRisk,
		PaperPhysicalRisk:    score.Breakdown.PaperPhysicalRisk,
		InventoryTrendRisk:   score.Breakdown.InventoryTrendRisk,
		DeliveryVelocityRisk: score.Breakdown.DeliveryVelocityRisk,
		MarketActivityRisk:   score.Breakdown.MarketActivityRisk,
		DominantFactor:       score.DominantFactor,
		Commentary:           score.Commentary,
	}
}

// Score reassembles the engine result from the stored columns
func (r RiskScoreRow) Score() risk.RiskScore {
	return risk.RiskScore{
		Composite: r.Composite,
		Level:     r.Level,
		Breakdown: risk.RiskScoreBreakdown{
			CoverageRisk:         r.CoverageRisk,
			PaperPhysicalRisk:    r.PaperPhysicalRisk,
			InventoryTrendRisk:   r.InventoryTrendRisk,
			DeliveryVelocityRisk: r.DeliveryVelocityRisk,
			MarketActivityRisk:   r.MarketActivityRisk,
		},
		DominantFactor: r.DominantFactor,
		Commentary:     r.Commentary,
	}
}
