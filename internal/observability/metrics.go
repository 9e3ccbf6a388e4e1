package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quijoterun/tracker/internal/backend"
)

const namespace = "qrun"

// Metrics holds the tracker's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	authChanges     *prometheus.CounterVec
	streamClients   prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Table API calls by table, operation and outcome.",
		}, []string{"table", "op", "outcome"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of table API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table", "op"}),
		authChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "state_changes_total",
			Help:      "Auth state transitions by event.",
		}, []string{"event"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sse",
			Name:      "clients",
			Help:      "Connected countdown stream clients.",
		}),
	}

	m.registry.MustRegister(
		m.backendRequests,
		m.backendDuration,
		m.authChanges,
		m.streamClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAuthChange counts an auth state transition
func (m *Metrics) RecordAuthChange(change backend.AuthChange) {
	m.authChanges.WithLabelValues(string(change.Event)).Inc()
}

// StreamConnected tracks a countdown stream client joining
func (m *Metrics) StreamConnected() {
	m.streamClients.Inc()
}

// StreamDisconnected tracks a countdown stream client leaving
func (m *Metrics) StreamDisconnected() {
	m.streamClients.Dec()
}

func (m *Metrics) observe(table, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backendRequests.WithLabelValues(table, op, outcome).Inc()
	m.backendDuration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
}

// instrumentedTables wraps a backend.Tables with call metrics
type instrumentedTables struct {
	next    backend.Tables
	metrics *Metrics
}

// InstrumentTables returns t with every call counted and timed
func InstrumentTables(t backend.Tables, m *Metrics) backend.Tables {
	return &instrumentedTables{next: t, metrics: m}
}

func (i *instrumentedTables) Select(ctx context.Context, table string, q backend.Query, dest any) error {
	start := time.Now()
	err := i.next.Select(ctx, table, q, dest)
	i.metrics.observe(table, "select", start, err)
	return err
}

func (i *instrumentedTables) Insert(ctx context.Context, table string, row any, dest any) error {
	start := time.Now()
	err := i.next.Insert(ctx, table, row, dest)
	i.metrics.observe(table, "insert", start, err)
	return err
}

func (i *instrumentedTables) Update(ctx context.Context, table string, q backend.Query, patch any, dest any) error {
	start := time.Now()
	err := i.next.Update(ctx, table, q, patch, dest)
	i.metrics.observe(table, "update", start, err)
	return err
}

func (i *instrumentedTables) Delete(ctx context.Context, table string, q backend.Query) error {
	start := time.Now()
	err := i.next.Delete(ctx, table, q)
	i.metrics.observe(table, "delete", start, err)
	return err
}
