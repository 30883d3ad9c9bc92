package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/wordgain"
)

// promMetrics implements wordgain.MetricsCollector on a private registry.
type promMetrics struct {
	registry *prometheus.Registry

	latency    *prometheus.HistogramVec
	cells      prometheus.Counter
	unresolved prometheus.Counter
	batches    prometheus.Counter
	commits    *prometheus.CounterVec
	queries    *prometheus.CounterVec
}

func newPromMetrics() *promMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &promMetrics{
		registry: reg,
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wordgain_operation_latency_seconds",
			Help:    "Latency of batch computation, commits and queries",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		cells: factory.NewCounter(prometheus.CounterOpts{
			Name: "wordgain_cells_computed_total",
			Help: "Total matrix cells computed",
		}),
		unresolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "wordgain_cells_unresolved_total",
			Help: "Total matrix cells whose computation failed",
		}),
		batches: factory.NewCounter(prometheus.CounterOpts{
			Name: "wordgain_batches_computed_total",
			Help: "Total batches computed",
		}),
		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wordgain_commits_total",
			Help: "Total batch commit attempts",
		}, []string{"status"}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wordgain_queries_total",
			Help: "Total cell queries",
		}, []string{"status"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *promMetrics) RecordBatch(cells, unresolved int, d time.Duration) {
	m.batches.Inc()
	m.cells.Add(float64(cells))
	m.unresolved.Add(float64(unresolved))
	m.latency.WithLabelValues("batch", "success").Observe(d.Seconds())
}

func (m *promMetrics) RecordCommit(_ int, d time.Duration, err error) {
	m.commits.WithLabelValues(status(err)).Inc()
	m.latency.WithLabelValues("commit", status(err)).Observe(d.Seconds())
}

func (m *promMetrics) RecordQuery(d time.Duration, err error) {
	m.queries.WithLabelValues(status(err)).Inc()
	m.latency.WithLabelValues("query", status(err)).Observe(d.Seconds())
}

// serve exposes /metrics on addr until the returned server is shut down.
func (m *promMetrics) serve(addr string, logger *wordgain.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

var _ wordgain.MetricsCollector = (*promMetrics)(nil)
