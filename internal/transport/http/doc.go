// Package http implements HTTP request handlers for the CMX Pulse web
// service. It provides a thin layer between HTTP transport and business
// logic: handlers parse requests, delegate to services, and translate
// service errors into RFC 7807 problem responses.
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Store
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// Handlers never hold business logic. Metal validation happens in route
// middleware (MetalCtx) so downstream handlers can trust the parameter.
package http
