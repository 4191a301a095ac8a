package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for the HTTP surface and the
// simulation engine.
type Collector struct {
	gatherer prometheus.Gatherer

	Requests  *prometheus.CounterVec
	Durations *prometheus.HistogramVec

	Segments            prometheus.Gauge
	Intersections       prometheus.Gauge
	ActiveInterventions prometheus.Gauge

	SimulationRuns     prometheus.Counter
	SimulationDuration prometheus.Histogram
}

// NewCollector registers the metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corridorsim_requests_total",
			Help: "Total handled HTTP requests, labeled by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corridorsim_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"endpoint"}),
		Segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corridorsim_segments",
			Help: "Number of road segments in the loaded network.",
		}),
		Intersections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corridorsim_intersections",
			Help: "Number of intersections in the loaded network.",
		}),
		ActiveInterventions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corridorsim_active_interventions",
			Help: "Interventions currently applied to the network.",
		}),
		SimulationRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "corridorsim_simulation_runs_total",
			Help: "Total completed scenario simulations.",
		}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "corridorsim_simulation_duration_seconds",
			Help:    "Wall time per scenario simulation in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	collectors := []prometheus.Collector{
		c.Requests, c.Durations,
		c.Segments, c.Intersections, c.ActiveInterventions,
		c.SimulationRuns, c.SimulationDuration,
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRequest records one handled request.
func (c *Collector) ObserveRequest(endpoint string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	c.Durations.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
