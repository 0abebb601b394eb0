// Package app wires the CMX Pulse application together: configuration,
// logging and OpenTelemetry, the snapshot store and risk engine, the
// service layer, the chi router, the websocket hub, and the cron-driven
// analysis scheduler.
//
// The wiring order matters: configuration and logging first, then
// observability providers, then the store and engine, then services, and
// finally transport. Handlers receive services through interfaces so they
// stay testable without the full container.
package app
