package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	tilesResolved *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tileindex",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed",
		}, []string{"endpoint", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tileindex",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),

		tilesResolved: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tileindex",
			Subsystem: "resolver",
			Name:      "tiles_per_viewport",
			Help:      "Number of tile indices resolved for a viewport",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"model"}),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request metrics and an access log line per request.
func (a *API) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		latency := time.Since(start)
		a.metrics.requests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		a.metrics.duration.WithLabelValues(endpoint).Observe(latency.Seconds())

		level := slog.LevelDebug
		if rec.status >= 500 {
			level = slog.LevelError
		} else if rec.status >= 400 {
			level = slog.LevelWarn
		}
		a.log().LogAttrs(r.Context(), level, r.Method+" "+r.URL.Path,
			slog.Int("status", rec.status),
			slog.String("latency", latency.String()),
		)
	}
}
