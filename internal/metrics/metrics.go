// Package metrics exposes Prometheus instrumentation for the cache and sync layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheReads tracks cache read outcomes per resource kind.
	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "garagesync",
			Subsystem: "cache",
			Name:      "reads_total",
			Help:      "Cache reads by outcome",
		},
		[]string{"kind", "outcome"}, // outcome: hit, load, load_error
	)

	// CacheInvalidations tracks prefix invalidations applied to the cache.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "garagesync",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Cache entries marked stale, by key prefix kind",
		},
		[]string{"kind"},
	)

	// RealtimeEvents tracks change-event handling outcomes.
	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "garagesync",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Change events by handling outcome",
		},
		[]string{"kind", "outcome"}, // outcome: invalidated, ignored, dropped
	)

	// GatewayWrites tracks write results at the data gateway.
	GatewayWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "garagesync",
			Subsystem: "gateway",
			Name:      "writes_total",
			Help:      "Gateway write operations by result",
		},
		[]string{"kind", "result"}, // result: ok, error
	)
)
