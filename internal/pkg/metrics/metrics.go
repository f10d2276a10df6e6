package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquery",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geoquery",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Location store metrics
	LocationWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquery",
		Subsystem: "store",
		Name:      "location_writes_total",
		Help:      "Total location writes by operation and outcome",
	}, []string{"op", "status"})

	LocationReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquery",
		Subsystem: "store",
		Name:      "location_reads_total",
		Help:      "Total point reads by outcome",
	}, []string{"status"})

	// Live query metrics
	ActiveQuerySessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geoquery",
		Subsystem: "query",
		Name:      "active_sessions",
		Help:      "Current number of open query sessions",
	})

	QueryEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoquery",
		Subsystem: "query",
		Name:      "events_total",
		Help:      "Total events delivered to query sessions",
	}, []string{"event"})

	RangesPerRegion = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geoquery",
		Subsystem: "query",
		Name:      "ranges_per_region",
		Help:      "Number of geohash ranges a region decomposes into",
		Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geoquery",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "geoquery",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
	}, []string{"name"})
)

// Status renders an error as an outcome label.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware records request metrics.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// echo resolves the route pattern, which keeps label cardinality bounded.
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			httpRequestsTotal.WithLabelValues(method, path, status).Inc()
			httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler returns an echo handler serving the Prometheus endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
