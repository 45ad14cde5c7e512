package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/routestate/pkg/route"
	"github.com/vango-dev/routestate/pkg/router"
	"github.com/vango-dev/routestate/pkg/store"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "routestate").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "routestate",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for the HTTP API and the router.
// It implements router.Observer.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	importsTotal    *prometheus.CounterVec
	importDuration  *prometheus.HistogramVec
	importErrors    *prometheus.CounterVec
	wsClients       prometheus.Gauge
	wsErrors        *prometheus.CounterVec
}

var _ router.Observer = (*Metrics)(nil)

// NewMetrics registers the collectors with the configured registry.
//
// Metrics collected:
//   - routestate_http_requests_total: requests by route pattern, method and status
//   - routestate_http_request_duration_seconds: request latency by route pattern
//   - routestate_imports_total: URL/state imports by source and outcome
//   - routestate_import_duration_seconds: import latency by source
//   - routestate_import_errors_total: rejected imports by source and reason
//   - routestate_websocket_clients: connected snapshot feed clients
//   - routestate_websocket_errors_total: feed errors by type
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r, _ := router.New(root, router.WithObserver(m))
//	mux.Use(m.Handler)
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP API requests",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP API request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		importsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "imports_total",
			Help:        "Total number of URL and state imports",
			ConstLabels: config.ConstLabels,
		}, []string{"source", "outcome"}),

		importDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "import_duration_seconds",
			Help:        "Import duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"source"}),

		importErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "import_errors_total",
			Help:        "Total number of rejected imports",
			ConstLabels: config.ConstLabels,
		}, []string{"source", "reason"}),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_clients",
			Help:        "Number of connected snapshot feed clients",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total snapshot feed errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Handler is HTTP middleware recording request counts and latency.
// Requests are labelled by chi route pattern, so it must be mounted on a
// chi router.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		pattern := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(pattern).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(pattern, r.Method, strconv.Itoa(status)).Inc()
	})
}

// ObserveImport implements router.Observer.
func (m *Metrics) ObserveImport(source string, d time.Duration, changed bool, err error) {
	m.importDuration.WithLabelValues(source).Observe(d.Seconds())

	outcome := "unchanged"
	switch {
	case err != nil:
		outcome = "rejected"
		m.importErrors.WithLabelValues(source, categorizeError(err)).Inc()
	case changed:
		outcome = "changed"
	}
	m.importsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordClientConnect records a new snapshot feed client.
func (m *Metrics) RecordClientConnect() {
	m.wsClients.Inc()
}

// RecordClientDisconnect records a snapshot feed client leaving.
func (m *Metrics) RecordClientDisconnect() {
	m.wsClients.Dec()
}

// RecordWebSocketError records a snapshot feed error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}

// categorizeError maps an error to a low-cardinality label.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, route.ErrMalformedState):
		return "malformed_state"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrInvalidName):
		return "invalid_name"
	default:
		return "internal"
	}
}

// routePattern returns the matched chi pattern, or "unmatched".
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "unmatched"
}
