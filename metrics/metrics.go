package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine's Prometheus collectors. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Decisions       *prometheus.CounterVec
	Violations      *prometheus.CounterVec
	SpecLookups     *prometheus.CounterVec
	DecisionLatency prometheus.Histogram
	DisciplineScore *prometheus.GaugeVec
	HTTPRequests    *prometheus.CounterVec
}

// New builds a Collector registered on its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_decisions_total",
				Help: "Trade validation decisions by final severity",
			},
			[]string{"severity"},
		),
		Violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_violations_total",
				Help: "Blocking violations raised, by code",
			},
			[]string{"code"},
		),
		SpecLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_spec_lookups_total",
				Help: "Broker symbol spec lookups by source (broker, table, fallback)",
			},
			[]string{"source"},
		),
		DecisionLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradeguard_decision_duration_seconds",
				Help:    "Time spent producing a validation decision",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		DisciplineScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradeguard_discipline_score",
				Help: "Most recent daily discipline score per scheduled account",
			},
			[]string{"account"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	c.registry.MustRegister(
		c.Decisions,
		c.Violations,
		c.SpecLookups,
		c.DecisionLatency,
		c.DisciplineScore,
		c.HTTPRequests,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveDecision records one validation outcome.
func (c *Collector) ObserveDecision(severity string, violationCodes []string, specSource string, seconds float64) {
	if c == nil {
		return
	}
	c.Decisions.WithLabelValues(severity).Inc()
	for _, code := range violationCodes {
		c.Violations.WithLabelValues(code).Inc()
	}
	if specSource != "" {
		c.SpecLookups.WithLabelValues(specSource).Inc()
	}
	c.DecisionLatency.Observe(seconds)
}

func (c *Collector) ObserveDiscipline(account string, total int) {
	if c == nil {
		return
	}
	c.DisciplineScore.WithLabelValues(account).Set(float64(total))
}

func (c *Collector) ObserveHTTP(route, code string) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, code).Inc()
}
