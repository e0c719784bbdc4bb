package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// DomainEvents counts successful aggregator mutations by kind (vote, join, friend_accept, ...).
	DomainEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolyard_domain_events_total",
			Help: "Successful domain mutations by kind",
		},
		[]string{"kind"},
	)

	// RealtimeDeliveries counts rows pushed to websocket sessions per relation.
	RealtimeDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolyard_realtime_deliveries_total",
			Help: "Rows delivered to websocket sessions",
		},
		[]string{"relation"},
	)

	// ActiveSockets tracks open websocket sessions per endpoint.
	ActiveSockets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "schoolyard_websocket_sessions",
			Help: "Open websocket sessions",
		},
		[]string{"endpoint"},
	)

	// ReconcileFixes counts rows repaired by the reconciler.
	ReconcileFixes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schoolyard_reconcile_fixes_total",
			Help: "Rows repaired by reconciliation",
		},
		[]string{"kind"},
	)

	registerOnce sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, DomainEvents, RealtimeDeliveries, ActiveSockets, ReconcileFixes)
	})
}

// RecordEvent increments the domain event counter for kind
func RecordEvent(kind string) {
	DomainEvents.WithLabelValues(kind).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
