// Package metrics exposes Prometheus instrumentation for the aggregation
// engine and its refresh machinery.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the engine's Prometheus metrics. A nil Collector is valid
// and records nothing, which keeps the pipeline free of instrumentation
// wiring in tests.
type Collector struct {
	aggregationsTotal    *prometheus.CounterVec
	aggregationDuration  prometheus.Histogram
	recordsNormalized    prometheus.Counter
	malformedRecords     prometheus.Counter
	refreshesTotal       *prometheus.CounterVec
	staleRefreshesTotal  prometheus.Counter
	activeSubscriptions  prometheus.Gauge
	cacheHitsTotal       prometheus.Counter
	cacheMissesTotal     prometheus.Counter
}

// NewCollector registers the engine metrics with a registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		aggregationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_aggregations_total",
			Help: "Aggregation passes run, by dashboard type",
		}, []string{"dashboard_type"}),
		aggregationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_aggregation_duration_seconds",
			Help:    "Time spent running the full normalization and aggregation pipeline",
			Buckets: prometheus.DefBuckets,
		}),
		recordsNormalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_records_normalized_total",
			Help: "Raw deal records normalized",
		}),
		malformedRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_malformed_records_total",
			Help: "Raw deal records that could not be mapped and were marked inactive",
		}),
		refreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_refreshes_total",
			Help: "Dashboard refreshes, by trigger (initial, poll, change)",
		}, []string{"trigger"}),
		staleRefreshesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_stale_refreshes_total",
			Help: "In-flight refreshes discarded because a newer refresh completed first",
		}),
		activeSubscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_active_subscriptions",
			Help: "Dashboard subscriptions currently attached",
		}),
		cacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_cache_hits_total",
			Help: "Aggregation results served from the memoized cache",
		}),
		cacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_cache_misses_total",
			Help: "Aggregation results computed fresh",
		}),
	}
}

// ObserveAggregation records one pipeline pass.
func (c *Collector) ObserveAggregation(dashboardType string, duration time.Duration, records, malformed int) {
	if c == nil {
		return
	}
	c.aggregationsTotal.WithLabelValues(dashboardType).Inc()
	c.aggregationDuration.Observe(duration.Seconds())
	c.recordsNormalized.Add(float64(records))
	c.malformedRecords.Add(float64(malformed))
}

// ObserveRefresh records one subscription refresh by trigger.
func (c *Collector) ObserveRefresh(trigger string) {
	if c == nil {
		return
	}
	c.refreshesTotal.WithLabelValues(trigger).Inc()
}

// ObserveStaleRefresh records a superseded in-flight refresh.
func (c *Collector) ObserveStaleRefresh() {
	if c == nil {
		return
	}
	c.staleRefreshesTotal.Inc()
}

// SubscriptionStarted increments the active subscription gauge.
func (c *Collector) SubscriptionStarted() {
	if c == nil {
		return
	}
	c.activeSubscriptions.Inc()
}

// SubscriptionEnded decrements the active subscription gauge.
func (c *Collector) SubscriptionEnded() {
	if c == nil {
		return
	}
	c.activeSubscriptions.Dec()
}

// ObserveCache records a cache hit or miss.
func (c *Collector) ObserveCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.cacheHitsTotal.Inc()
	} else {
		c.cacheMissesTotal.Inc()
	}
}
