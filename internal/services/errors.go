package services

import "errors"

// Service errors
var (
	// Snapshot errors
	ErrNoInventorySnapshots = errors.New("no inventory snapshots")
	ErrNoMarketSnapshots    = errors.New("no market snapshots")
	ErrNoRiskScores         = errors.New("no risk scores computed")

	// Refresh errors
	ErrRefreshFailed = errors.New("risk refresh failed")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
