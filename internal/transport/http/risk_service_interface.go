package http

import (
	"context"

	"cmxcli/internal/risk"
	"cmxcli/internal/snapshot"
)

// RiskServiceInterface defines the risk operations the transport layer needs.
// The concrete implementation lives in internal/services.
type RiskServiceInterface interface {
	// Latest returns the most recent stored score per metal, in display order.
	Latest(ctx context.Context) ([]snapshot.RiskScoreRow, error)

	// History returns all stored scores for one metal, oldest first.
	History(ctx context.Context, metal snapshot.Metal) ([]snapshot.RiskScoreRow, error)

	// LatestInventory returns the newest inventory snapshot for one metal.
	LatestInventory(ctx context.Context, metal snapshot.Metal) (snapshot.InventorySnapshot, error)

	// InventoryHistory returns all stored inventory snapshots for one metal,
	// oldest first.
	InventoryHistory(ctx context.Context, metal snapshot.Metal) ([]snapshot.InventorySnapshot, error)

	// RefreshMetal recomputes and persists the score for one metal.
	RefreshMetal(ctx context.Context, metal snapshot.Metal) (snapshot.RiskScoreRow, error)

	// RefreshAll recomputes every metal and broadcasts the results.
	RefreshAll(ctx context.Context) ([]snapshot.RiskScoreRow, error)

	// Preview scores ad-hoc factors without persisting anything.
	Preview(ctx context.Context, factors risk.RiskFactors) risk.RiskScore
}
