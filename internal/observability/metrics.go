package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "voicelens", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voicelens", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	WarehouseQueries = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voicelens", Name: "warehouse_query_duration_seconds",
			Help:    "Warehouse query duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"}, // outcome: ok|error
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "voicelens", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "status"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "voicelens", Name: "cache_events_total", Help: "Cache hits/misses/sets."},
		[]string{"cache", "event"}, // event: hit|miss|set
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, WarehouseQueries, ExternalRequests, CacheEvents)
}

func ObserveQuery(outcome string, d time.Duration) {
	WarehouseQueries.WithLabelValues(outcome).Observe(d.Seconds())
}

func ObserveExternal(service, status string) {
	ExternalRequests.WithLabelValues(service, status).Inc()
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry on a gin route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
