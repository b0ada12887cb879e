// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SettlementComputeDuration tracks how long one settlement computation takes,
// snapshot load included.
var SettlementComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "evenup",
	Subsystem: "settlement",
	Name:      "compute_duration_seconds",
	Help:      "Time spent loading a snapshot and computing settlements.",
	Buckets:   prometheus.DefBuckets,
})

// SettlementTransfers counts transfers produced by settlement computations.
var SettlementTransfers = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "evenup",
	Subsystem: "settlement",
	Name:      "transfers_total",
	Help:      "Total transfers produced by settlement computations.",
})

// SettlementResidualCents tracks the absolute rounding drift left in a
// balance set after computation, in cents. Values beyond a few cents point
// at inconsistent expense data.
var SettlementResidualCents = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "evenup",
	Subsystem: "settlement",
	Name:      "residual_cents",
	Help:      "Absolute rounding residual of a settlement computation, in cents.",
	Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
})

// HTTPRequests counts handled HTTP requests by method, route pattern and
// status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "evenup",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total handled HTTP requests.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks request latency by route pattern.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "evenup",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})
