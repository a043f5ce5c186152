package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth event outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeReuse   = "reuse_detected"
	OutcomeError   = "error"
)

var (
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication events by operation and outcome.",
		},
		[]string{"event", "outcome"},
	)

	SessionsRevoked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sessions_revoked_total",
			Help: "Sessions revoked, by reason.",
		},
		[]string{"reason"},
	)

	JanitorDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_janitor_deleted_total",
			Help: "Rows purged by the cleanup loop.",
		},
		[]string{"kind"},
	)

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(AuthEvents, SessionsRevoked, JanitorDeleted, httpInFlight, httpRequestDuration)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAuth counts one auth operation outcome.
func RecordAuth(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

func RecordRevoked(reason string, n int64) {
	if n > 0 {
		SessionsRevoked.WithLabelValues(reason).Add(float64(n))
	}
}

// Instrument measures latency per matched route. Unmatched paths share one
// label to keep cardinality bounded.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		httpInFlight.Dec()
	}
}
