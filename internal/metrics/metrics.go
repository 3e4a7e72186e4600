// Package metrics exposes Prometheus counters for directory traffic and
// search sessions.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moviefinder/moviefinder/internal/directory"
)

const namespace = "moviefinder"

// Metrics holds the application's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	directoryRequests *prometheus.CounterVec
	directoryLatency  *prometheus.HistogramVec
	sessionsStarted   prometheus.Counter
	pagesRequested    prometheus.Counter
	responsesStale    prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		directoryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directory",
			Name:      "requests_total",
			Help:      "Directory requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		directoryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "directory",
			Name:      "request_duration_seconds",
			Help:      "Directory request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "sessions_started_total",
			Help:      "Search sessions started after the debounce delay.",
		}),
		pagesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "pages_requested_total",
			Help:      "Result pages requested by search sessions.",
		}),
		responsesStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "stale_responses_total",
			Help:      "Search responses discarded because the query had changed.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.directoryRequests,
		m.directoryLatency,
		m.sessionsStarted,
		m.pagesRequested,
		m.responsesStale,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterGauge exposes fn as a gauge sampled at scrape time.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

func (m *Metrics) SessionStarted(string) {
	m.sessionsStarted.Inc()
}

func (m *Metrics) RequestIssued(string, int) {
	m.pagesRequested.Inc()
}

func (m *Metrics) ResponseDiscarded(string, int) {
	m.responsesStale.Inc()
}

// InstrumentDirectory wraps p so every call is counted and timed.
func (m *Metrics) InstrumentDirectory(p directory.Provider) directory.Provider {
	return &instrumented{Provider: p, m: m}
}

type instrumented struct {
	directory.Provider
	m *Metrics
}

func (i *instrumented) FetchByID(ctx context.Context, id string) (*directory.FullRecord, error) {
	start := time.Now()
	rec, err := i.Provider.FetchByID(ctx, id)
	i.m.observe("fetch", start, err)
	return rec, err
}

func (i *instrumented) Search(ctx context.Context, query string, page int) (*directory.SearchPage, error) {
	start := time.Now()
	res, err := i.Provider.Search(ctx, query, page)
	i.m.observe("search", start, err)
	return res, err
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.directoryLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.directoryRequests.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, directory.ErrNotFound) {
		return "not_found"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if kind, ok := directory.KindOf(err); ok {
		return kind.String()
	}
	return "error"
}
