// Package telemetry exports pipeline metrics in Prometheus exposition format.
//
// The Collector is wired into the event bus as a sink, so every published
// security event is counted without the pipeline calling into it directly.
// Stage and turn timings are recorded by the orchestrator, which is the only
// component that knows when a stage started.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rampart-sec/rampart/pkg/events"
)

const namespace = "rampart"

// Collector owns the Prometheus registry for the gateway and all metric
// instruments registered on it. All label sets are bounded: layers 1-9,
// a fixed action vocabulary, and a handful of generator providers.
type Collector struct {
	registry *prometheus.Registry

	stageDecisions *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	threatScore    *prometheus.HistogramVec
	turnsTotal     *prometheus.CounterVec
	turnDuration   prometheus.Histogram

	promotionsTotal prometheus.Counter
	pendingPatterns prometheus.Gauge

	generatorRequests *prometheus.CounterVec
	generatorDuration *prometheus.HistogramVec
}

// NewCollector creates a collector backed by the given registry. A nil
// registry gets a fresh private one, which keeps tests isolated from the
// default global registry.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{registry: registry}

	c.stageDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_decisions_total",
			Help:      "Security events published per pipeline stage and action.",
		},
		[]string{"layer", "action"},
	)

	c.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each analysis stage.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"layer"},
	)

	c.threatScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "threat_score",
			Help:      "Distribution of threat scores per stage.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"layer"},
	)

	c.turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "turns_total",
			Help:      "Completed conversation turns by outcome.",
		},
		[]string{"outcome"},
	)

	c.turnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn latency including response generation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	c.promotionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adaptive",
			Name:      "promotions_total",
			Help:      "Attack patterns promoted to detection seeds.",
		},
	)

	c.pendingPatterns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "adaptive",
			Name:      "pending_patterns",
			Help:      "Recorded attack patterns awaiting a promotion sweep.",
		},
	)

	c.generatorRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "requests_total",
			Help:      "Upstream generation requests by provider and status.",
		},
		[]string{"provider", "status"},
	)

	c.generatorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "duration_seconds",
			Help:      "Upstream generation latency per provider.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	registry.MustRegister(
		c.stageDecisions,
		c.stageDuration,
		c.threatScore,
		c.turnsTotal,
		c.turnDuration,
		c.promotionsTotal,
		c.pendingPatterns,
		c.generatorRequests,
		c.generatorDuration,
	)

	return c
}

// Consume counts a published security event. Implements events.Sink, so the
// collector can be attached to the bus with AddSink.
func (c *Collector) Consume(ev events.SecurityEvent) {
	layer := strconv.Itoa(ev.Layer)
	c.stageDecisions.WithLabelValues(layer, ev.Action).Inc()
	c.threatScore.WithLabelValues(layer).Observe(ev.ThreatScore)
}

// RecordStage observes the wall time of a single analysis stage.
func (c *Collector) RecordStage(layer int, duration time.Duration) {
	c.stageDuration.WithLabelValues(strconv.Itoa(layer)).Observe(duration.Seconds())
}

// RecordTurn counts a finished turn and its end-to-end latency. Outcome is
// one of "passed", "blocked", "honeypot" or "trapped".
func (c *Collector) RecordTurn(outcome string, duration time.Duration) {
	c.turnsTotal.WithLabelValues(outcome).Inc()
	c.turnDuration.Observe(duration.Seconds())
}

// RecordPromotions adds the result of an adaptive sweep.
func (c *Collector) RecordPromotions(promoted int) {
	c.promotionsTotal.Add(float64(promoted))
}

// SetPendingPatterns tracks the adaptive engine's unpromoted pattern count.
func (c *Collector) SetPendingPatterns(n int) {
	c.pendingPatterns.Set(float64(n))
}

// RecordGeneration counts an upstream LLM call. Status is "success" or
// "error"; fallback responses are recorded as errors by the caller.
func (c *Collector) RecordGeneration(provider, status string, duration time.Duration) {
	c.generatorRequests.WithLabelValues(provider, status).Inc()
	c.generatorDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveBus registers scrape-time gauges that mirror the bus counters, so
// the exporter never holds stale copies of them.
func (c *Collector) ObserveBus(bus *events.Bus) {
	c.registry.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "subscribers",
				Help:      "Live event stream subscribers.",
			},
			func() float64 { return float64(bus.Stats().Subscribers) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Security events published to the bus.",
			},
			func() float64 { return float64(bus.Stats().Published) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "dropped_total",
				Help:      "Events dropped on saturated subscriber channels.",
			},
			func() float64 { return float64(bus.Stats().Dropped) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "evicted_total",
				Help:      "Subscribers evicted after sustained backpressure.",
			},
			func() float64 { return float64(bus.Stats().Evicted) },
		),
	)
}

// Registry returns the underlying registry for wiring additional collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

var _ events.Sink = (*Collector)(nil)
