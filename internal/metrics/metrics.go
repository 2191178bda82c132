// Package metrics exposes Prometheus instruments for the pricing engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rfq_pricing"

// Metrics holds the registered collectors. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	httpDuration   *prometheus.HistogramVec
	runsCreated    *prometheus.CounterVec
	runDuration    prometheus.Histogram
	itemsPriced    *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	dutyLookups    *prometheus.CounterVec
	ambiguousTies  prometheus.Counter
	originsChanged prometheus.Counter
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		runsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_runs_total",
			Help:      "Pricing run creation attempts by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_run_duration_seconds",
			Help:      "Time to price a full RFQ.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		itemsPriced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_items_total",
			Help:      "Priced items by pricing method.",
		}, []string{"method"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approval_transitions_total",
			Help:      "Approval state machine transitions.",
		}, []string{"event"}),
		dutyLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duty_lookups_total",
			Help:      "Regulatory duty lookups by source.",
		}, []string{"source"}),
		ambiguousTies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agreement_resolution_ambiguous_total",
			Help:      "Agreement resolutions that needed the final id tie-break.",
		}),
		originsChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "origin_overrides_total",
			Help:      "Items where the requested origin was restricted and the recommendation was used.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration, m.runsCreated, m.runDuration, m.itemsPriced,
		m.transitions, m.dutyLookups, m.ambiguousTies, m.originsChanged,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) RunCreated(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsCreated.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.runDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) ItemPriced(method string) {
	if m == nil {
		return
	}
	m.itemsPriced.WithLabelValues(method).Inc()
}

func (m *Metrics) Transition(event string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event).Inc()
}

// DutyLookup counts a duty rate lookup served from source ("cache", "remote" or "degraded")
func (m *Metrics) DutyLookup(source string) {
	if m == nil {
		return
	}
	m.dutyLookups.WithLabelValues(source).Inc()
}

func (m *Metrics) AmbiguousResolution() {
	if m == nil {
		return
	}
	m.ambiguousTies.Inc()
}

func (m *Metrics) OriginOverridden() {
	if m == nil {
		return
	}
	m.originsChanged.Inc()
}
