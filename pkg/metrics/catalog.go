package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records upstream catalog calls and listing commits.
type CatalogMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
	stale    prometheus.Counter
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Duration of catalog service requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_request_failures_total",
		Help: "Failed catalog service requests.",
	}, []string{"operation"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_listing_stale_discards_total",
		Help: "Listing responses discarded because a newer load was issued.",
	})
	reg.MustRegister(duration, failure, stale)
	return &CatalogMetrics{
		duration: duration,
		failure:  failure,
		stale:    stale,
	}
}

// ObserveRequest records one upstream call and counts it as failed when err is set.
func (c *CatalogMetrics) ObserveRequest(operation string, duration time.Duration, err error) {
	if c == nil || c.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	c.duration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		c.failure.WithLabelValues(op).Inc()
	}
}

// IncStaleDiscard counts a listing response that lost to a newer generation.
func (c *CatalogMetrics) IncStaleDiscard() {
	if c == nil || c.stale == nil {
		return
	}
	c.stale.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
