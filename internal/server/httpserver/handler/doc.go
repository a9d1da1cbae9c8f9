// Package handler provides the HTTP request handlers for snapkv.
//
// Routes:
//
//   - GET /kv, GET|PUT|POST|DELETE /kv/{key}, POST /kv/{key}/rename
//   - POST /v1/stats, /v1/uniq, /v1/grep
//   - GET /health, GET /ready
//
// Every JSON response uses the Response envelope. Domain error codes are
// mapped to HTTP statuses by their numeric suffix.
package handler
