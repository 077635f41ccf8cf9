// Package telemetry exposes Prometheus metrics for the board server.
package telemetry

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	gcPauseTotal = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_gc_pause_total_ns",
			Help: "Total GC pause time in nanoseconds.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.PauseTotalNs)
		},
	)

	heapAlloc = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_heap_alloc_bytes",
			Help: "Current heap allocation in bytes.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.HeapAlloc)
		},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_http_requests_total",
			Help: "HTTP requests served, by method and status class.",
		},
		[]string{"method", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forum_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	postsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_created_total",
		Help: "Posts successfully written to the board.",
	})

	sessionsIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_sessions_issued_total",
		Help: "Sessions created by successful logins.",
	})

	sessionsPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_sessions_purged_total",
		Help: "Expired session records removed by the sweeper.",
	})
)

func init() {
	prometheus.MustRegister(gcPauseTotal)
	prometheus.MustRegister(heapAlloc)
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(postsCreated)
	prometheus.MustRegister(sessionsIssued)
	prometheus.MustRegister(sessionsPurged)
}

// Handler serves the metrics endpoint.
func Handler() http.Handler { return promhttp.Handler() }

// PostCreated records a successful post write.
func PostCreated() { postsCreated.Inc() }

// SessionIssued records a successful login.
func SessionIssued() { sessionsIssued.Inc() }

// SessionsPurged records sessions removed by the background sweeper.
func SessionsPurged(n int) { sessionsPurged.Add(float64(n)) }

// Middleware records request counts and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		requestsTotal.WithLabelValues(r.Method, statusClass(srw.status)).Inc()
		requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
