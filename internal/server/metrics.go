package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/divvyhq/divvy/internal/ledger"
)

// Metrics holds the prometheus collectors for the HTTP layer and the
// ledger engine. It implements ledger.EventSink so balance transitions
// show up as counters.
type Metrics struct {
	ledgerMutations *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

var _ ledger.EventSink = (*Metrics)(nil)

func NewMetrics() *Metrics {
	return &Metrics{
		ledgerMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "divvy_ledger_mutations_total",
			Help: "Balance mutations by operation and resulting transition.",
		}, []string{"op", "transition"}),
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "divvy_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "divvy_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// LedgerChanged records one mutation event.
func (m *Metrics) LedgerChanged(e ledger.Event) {
	m.ledgerMutations.WithLabelValues(string(e.Op), string(e.Transition)).Inc()
}

func (m *Metrics) httpMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
