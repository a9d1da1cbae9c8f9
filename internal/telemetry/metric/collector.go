package metric

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Sizer reports the number of keys held by a store.
type Sizer interface {
	Len(ctx context.Context) int
}

// Collector exports the key count of a store at scrape time.
type Collector struct {
	store Sizer
	keys  *prometheus.Desc
}

// NewCollector creates a collector reading from store.
func NewCollector(store Sizer) *Collector {
	return &Collector{
		store: store,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Number of keys currently held by the store.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.store.Len(context.Background())))
}
