// Package metrics exposes the service's Prometheus collectors and the
// server that publishes them.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	codesIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codes_issued_total",
		Help: "Signature codes delivered and persisted, by role.",
	}, []string{"role"})

	codeDeliveryFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "code_delivery_failures_total",
		Help: "Signature codes that could not be delivered, by role.",
	}, []string{"role"})

	verifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "code_verifications_total",
		Help: "Code verification outcomes, by role and outcome.",
	}, []string{"role", "outcome"})

	stamps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stamps_total",
		Help: "Stamp compositions, by role and result.",
	}, []string{"role", "result"})

	stampDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stamp_duration_seconds",
		Help:    "Time to fetch, stamp and store one revision.",
		Buckets: prometheus.DefBuckets,
	})
)

// IncCodesIssued counts a code that was delivered and persisted.
func IncCodesIssued(role string) { codesIssued.WithLabelValues(role).Inc() }

// IncCodeDeliveryFailures counts a code whose delivery failed.
func IncCodeDeliveryFailures(role string) { codeDeliveryFailures.WithLabelValues(role).Inc() }

// IncVerification counts one verification outcome.
func IncVerification(role, outcome string) { verifications.WithLabelValues(role, outcome).Inc() }

// IncStamp counts a stamp attempt; result is "ok" or "failed".
func IncStamp(role, result string) { stamps.WithLabelValues(role, result).Inc() }

// ObserveStampDuration records how long a stamp took.
func ObserveStampDuration(d time.Duration) { stampDuration.Observe(d.Seconds()) }

// NewRegistry returns a registry with the service collectors under namespace,
// plus the Go runtime and process collectors.
func NewRegistry(namespace string) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWithPrefix(namespace+"_", reg)
	wrapped.MustRegister(codesIssued, codeDeliveryFailures, verifications, stamps, stampDuration)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given namespace and listen address.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	reg := NewRegistry(namespace)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks until the server stops.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

// Handler returns the /metrics handler, for tests and embedding.
func (m *MetricsServer) Handler() http.Handler {
	return m.srv.Handler
}
