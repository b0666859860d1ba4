package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jobmetrics "github.com/Tech-Craft-Resources/orbit-engine/internal/jobs"
)

// Metrics collects the Prometheus metrics of the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	salesTotal      *prometheus.CounterVec
	salesRevenue    *prometheus.CounterVec
	movementsTotal  *prometheus.CounterVec
	movementUnits   *prometheus.CounterVec
	jobs            *jobmetrics.Metrics
}

// NewMetrics initialises the registry with HTTP, domain and job metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbit_http_requests_total",
		Help: "HTTP requests partitioned by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orbit_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	sales := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbit_sales_total",
		Help: "Committed sale transitions by event.",
	}, []string{"event"})
	revenue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbit_sales_amount_total",
		Help: "Summed sale totals by event.",
	}, []string{"event"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbit_inventory_movements_total",
		Help: "Committed stock ledger entries by movement type.",
	}, []string{"type"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbit_inventory_units_total",
		Help: "Absolute units moved through the stock ledger by movement type.",
	}, []string{"type"})
	registry.MustRegister(requests, duration, sales, revenue, movements, units)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		salesTotal:      sales,
		salesRevenue:    revenue,
		movementsTotal:  movements,
		movementUnits:   units,
		jobs:            jobmetrics.NewMetrics(registry),
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveSale counts a committed sale event and its amount.
func (m *Metrics) ObserveSale(event string, amount float64) {
	if m == nil {
		return
	}
	m.salesTotal.WithLabelValues(event).Inc()
	if amount > 0 {
		m.salesRevenue.WithLabelValues(event).Add(amount)
	}
}

// ObserveMovement counts a committed ledger entry.
func (m *Metrics) ObserveMovement(movementType string, quantity int) {
	if m == nil {
		return
	}
	m.movementsTotal.WithLabelValues(movementType).Inc()
	if quantity < 0 {
		quantity = -quantity
	}
	m.movementUnits.WithLabelValues(movementType).Add(float64(quantity))
}

// Jobs exposes the background job collectors registered on this registry.
func (m *Metrics) Jobs() *jobmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.jobs
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
