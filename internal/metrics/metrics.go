// Package metrics provides Prometheus instrumentation for the profit engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SimulationsTotal counts profit matrix computations, partitioned by
	// insurance plan type ("NONE" when the farm carries no policy).
	SimulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agromargin_simulations_total",
		Help: "Total number of profit matrix computations",
	}, []string{"plan"})

	// SimulationLatency tracks end-to-end matrix computation time.
	SimulationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agromargin_simulation_latency_seconds",
		Help:    "Profit matrix computation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"plan"})

	// GridCellsComputed counts individual matrix cells evaluated.
	GridCellsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agromargin_grid_cells_computed_total",
		Help: "Cumulative profit matrix cells evaluated",
	})

	// ValidationRejections counts requests rejected before computation,
	// partitioned by the offending field.
	ValidationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agromargin_validation_rejections_total",
		Help: "Simulation requests rejected by input validation",
	}, []string{"field"})

	// PoliciesUpserted counts insurance policy create/update operations.
	PoliciesUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agromargin_policies_upserted_total",
		Help: "Insurance policy create/update operations",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agromargin_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agromargin_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agromargin_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; route cardinality is tiny.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
