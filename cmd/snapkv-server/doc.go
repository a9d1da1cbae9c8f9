// Package main provides the entry point for snapkv-server.
//
// The server keeps a JSON key-value store in memory, persists every
// mutation to a snapshot file, and exposes it over:
//
//   - an HTTP API for keys and text utilities
//   - an optional Redis-compatible (RESP) listener
//   - an optional local Unix socket for operators
//
// Usage:
//
//	snapkv-server [flags]
//	snapkv-server -config /etc/snapkv/server.yaml
//
// Changes to log.level in the configuration file are applied without a
// restart.
package main
