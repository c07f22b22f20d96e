// Package metrics exposes Prometheus collectors for the HTTP API, media uploads,
// token lifecycle events and the dashboard cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videotube_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_media_uploads_total",
			Help: "Media uploads to the object store by kind and result",
		},
		[]string{"kind", "result"}, // result: "ok", "failed", "rejected"
	)

	MediaUploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videotube_media_upload_duration_seconds",
			Help:    "Duration of media uploads in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	UploadBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videotube_upload_breaker_state",
			Help: "Object store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	TokenEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_token_events_total",
			Help: "Token lifecycle events",
		},
		[]string{"event"}, // "issued", "rotated", "rejected", "revoked"
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_cache_lookups_total",
			Help: "Dashboard cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)
)

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpload records a media upload attempt.
func RecordUpload(kind, result string, duration time.Duration) {
	MediaUploads.WithLabelValues(kind, result).Inc()
	if result != "rejected" {
		MediaUploadDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latency labelled by the matched chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		RecordAPIRequest(r.Method, route, rec.status, time.Since(start))
	})
}
