// Package metric provides Prometheus metrics for snapkv.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, metric families and the HTTP handler
//   - collector.go: scrape-time collector for the store's key count
//
// Metrics are exposed at /metrics in Prometheus text format.
package metric
