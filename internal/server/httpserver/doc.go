// Package httpserver provides the HTTP server for snapkv.
//
// NewRouter mounts the handler package routes behind a middleware chain
// (Recover, RequestID, RateLimit, MaxBody, Metrics, Audit) and exposes
// Prometheus metrics on GET /metrics. Request IDs are ULIDs; rate limiting
// keeps one token bucket per client IP.
package httpserver
