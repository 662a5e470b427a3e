// Package telemetry provides logging, metrics and tracing setup for the badge relay.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and served
// by the side-channel HTTP server started in cmd/server:
//
//	GET http://<host>:<CIB_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. It is not served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template)
//   - Upstream badge fetches, by status class, with latency
//   - Icon lookups, by the source that answered
//   - Icon submissions, by outcome
//   - Database connection pool gauge (polled every 30 s)
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template and status code. The path label
// holds the Gin route template (e.g. /badge/*path), never the raw URL: badge paths
// carry free-form label text and would explode cardinality.
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

// Upstream metrics, recorded by the shields.io client.
//
// UpstreamRequestsTotal has labels {kind, class}; kind is "render" or "probe" and
// class is the status class ("2xx", "4xx", ...) or "error" for transport failures.
//
// Example PromQL:
//   - Upstream error ratio: sum(rate(upstream_badge_requests_total{class=~"5xx|error"}[5m])) / sum(rate(upstream_badge_requests_total[5m]))
var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_badge_requests_total",
			Help: "Total number of requests made to the upstream badge renderer, by kind and status class.",
		},
		[]string{"kind", "class"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_badge_request_duration_seconds",
			Help:    "Latency of requests made to the upstream badge renderer, by kind.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

// IconLookupsTotal counts icon resolutions by the source that answered:
// "curated", "custom" or "none".
var IconLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "icon_lookups_total",
		Help: "Total number of logo slug resolutions, by the source that answered.",
	},
	[]string{"source"},
)

// IconSubmissionsTotal counts submission attempts by outcome: "created",
// "invalid", "conflict", "too_large", "rejected" or "error".
var IconSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "icon_submissions_total",
		Help: "Total number of icon submissions, by outcome.",
	},
	[]string{"outcome"},
)

// DBOpenConnections tracks open connections in the SQL icon store pool. It is
// sampled every 30 seconds by StartDBStatsCollector.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StatusClass turns an HTTP status code into its class label ("2xx", "4xx", ...).
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return string(rune('0'+code/100)) + "xx"
}

// StartDBStatsCollector samples db pool statistics every 30 seconds. The goroutine
// exits when the database stops answering pings, which happens once main closes it.
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
