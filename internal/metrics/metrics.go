package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter: requests answered by an already-published derivative at the edge.
	EdgeHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "derivative_edge_hits_total",
			Help: "Total number of requests served by an existing edge derivative.",
		},
	)

	// Counter: derivatives written to the object store.
	PublishesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "derivative_publishes_total",
			Help: "Total number of derivatives published to the object store.",
		},
	)

	// Counter: internal failures by kind (VALIDATION, ORIGIN_NOT_FOUND,
	// ORIGIN_UNAVAILABLE, TRANSCODE_FAILED, PUBLISH_FAILED, PROBE_INDETERMINATE).
	FailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "derivative_failures_total",
			Help: "Total number of failed derivative operations by internal kind.",
		},
		[]string{"kind"},
	)

	// Counter: probes skipped because the known-key memo already confirmed the key.
	MemoHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "derivative_memo_hits_total",
			Help: "Total number of edge probes skipped via the known-key memo.",
		},
	)

	// Counter: requests that shared another request's in-flight computation.
	SingleflightSharedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "derivative_singleflight_shared_total",
			Help: "Total number of requests deduplicated onto a shared in-flight computation.",
		},
	)

	// Histogram: gateway HTTP latency in seconds.
	GatewayLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_latency_seconds",
			Help:    "HTTP request latency for the gateway in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"path", "method", "status_code"},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		EdgeHitsTotal,
		PublishesTotal,
		FailuresTotal,
		MemoHitsTotal,
		SingleflightSharedTotal,
		GatewayLatencySeconds,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures gateway latency for each HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		GatewayLatencySeconds.
			WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
