// Package services implements the business logic layer of CMX Pulse. It
// sits between the HTTP handlers and the snapshot store, so business rules
// stay centralized and testable.
//
// Services follow these principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection via constructors
//	4. Structured logging with slog throughout
//
// RiskService is the core service: it assembles risk factors from stored
// snapshots, runs the composite risk engine, persists the results, and
// broadcasts them to websocket clients. HealthService reports readiness
// of the store and the push layer.
package services
