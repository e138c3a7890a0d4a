// Package telemetry provides application-level observability for the portal backend.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// served on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<PORTAL_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not part of the Gin router, so it is never
// subject to the members-API authentication or rate-limiting middleware.
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /members/documents/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as document IDs.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Access-control metrics — recorded by the auth and rate-limit middleware.
//
// RateLimitRejectionsTotal counts requests rejected with 429, by endpoint
// class. A sudden rise on a single class usually means a misbehaving client;
// a rise across all classes usually means the budgets are too tight.
//
// AuthFailuresTotal counts requests rejected by the auth gate, by kind:
// "missing" (no or malformed Authorization header), "invalid" (token failed
// verification), "forbidden" (valid principal without admin privilege).
var (
	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter, by endpoint class.",
		},
		[]string{"class"},
	)

	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of requests rejected by the auth gate, by failure kind.",
		},
		[]string{"kind"},
	)
)

// Portal domain metrics.
//
// DocumentDownloadsTotal is incremented whenever a member fetches a document
// download URL, labelled by document category.
//
// ActivityLogFailuresTotal counts activity records that could not be
// persisted. Activity logging is best-effort and never fails the triggering
// request, so this counter is the only signal of a broken audit trail —
// alert on any sustained increase.
var (
	DocumentDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_downloads_total",
			Help: "Total number of document downloads, by category.",
		},
		[]string{"category"},
	)

	ActivityLogFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_log_failures_total",
			Help: "Total number of activity records that failed to persist.",
		},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections
// currently held by the sql.DB connection pool. It is sampled every 30 seconds
// by StartDBStatsCollector rather than per-request to avoid the overhead of
// sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB
// connection pool statistics every 30 seconds and updates the
// DBOpenConnections gauge. The goroutine exits cleanly when the database
// becomes unreachable (db.Ping fails), which happens automatically when the
// application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
