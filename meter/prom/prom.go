// Package prom exports routing decisions as Prometheus metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smartllm/smartrouter"
)

// Meter is a smartrouter.Meter that updates Prometheus collectors on every
// routing decision.
type Meter struct {
	requests  *prometheus.CounterVec
	cost      *prometheus.CounterVec
	savings   *prometheus.CounterVec
	cacheOps  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

var _ smartrouter.Meter = (*Meter)(nil)

// New creates a Meter registered on reg. Pass prometheus.DefaultRegisterer
// to use the process-wide registry.
func New(reg prometheus.Registerer) *Meter {
	factory := promauto.With(reg)
	return &Meter{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_router_requests_total",
				Help: "The total number of routed requests per model and strategy",
			},
			[]string{"model", "strategy"},
		),
		cost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_router_cost_dollars_total",
				Help: "The total cost in dollars attributed to each model",
			},
			[]string{"model"},
		),
		savings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_router_savings_dollars_total",
				Help: "The total savings in dollars versus the baseline model",
			},
			[]string{"model"},
		),
		cacheOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_router_cache_requests_total",
				Help: "Cache outcomes for routed requests",
			},
			[]string{"result"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_router_fallbacks_total",
				Help: "Requests served by the fallback model after a provider failure",
			},
			[]string{"model"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_router_errors_total",
				Help: "Router diagnostics by operation",
			},
			[]string{"op"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_router_request_duration_seconds",
				Help:    "End to end request latency per model",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
	}
}

func (m *Meter) OnDecision(d smartrouter.RoutingDecision) {
	m.requests.WithLabelValues(d.Model, string(d.Strategy)).Inc()
	m.cost.WithLabelValues(d.Model).Add(d.Cost)
	m.savings.WithLabelValues(d.Model).Add(d.Savings)
	m.latency.WithLabelValues(d.Model).Observe(d.Latency.Seconds())

	if d.CacheHit {
		m.cacheOps.WithLabelValues("hit").Inc()
	} else {
		m.cacheOps.WithLabelValues("miss").Inc()
	}
	if d.Fallback {
		m.fallbacks.WithLabelValues(d.Model).Inc()
	}
}

func (m *Meter) OnError(e smartrouter.ErrorEvent) {
	m.errors.WithLabelValues(e.Op).Inc()
}
