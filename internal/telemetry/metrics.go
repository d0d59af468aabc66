// Package telemetry provides application-level observability for the admin console.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<ADMC_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router and
// is therefore absent from the OpenAPI/Swagger spec.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Login attempt counters by outcome
//   - Audit pipeline write/drop counters
//   - Verification email delivery counter
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/admin/users/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as user IDs.
//
// # Usage
//
// Import the package for side effects so metrics are registered before the HTTP server
// starts listening:
//
//	import _ "github.com/admin-console/admin-console/internal/telemetry"
//
// Or import it directly and use an exported var:
//
//	telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()
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
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /api/v1/admin/users/:id),
// NOT the raw URL, to prevent unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
//
// Example PromQL queries:
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
//   - Average latency:                   rate(http_request_duration_seconds_sum[5m]) / rate(http_request_duration_seconds_count[5m])
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

// Authentication metrics.
//
// LoginAttemptsTotal is a CounterVec with label {outcome} taking the values
// "success", "invalid_credentials", and "email_not_verified".  A sudden spike
// in invalid_credentials across many source IPs is a credential stuffing signal.
//
// Example PromQL queries:
//   - Failure ratio:  sum(rate(login_attempts_total{outcome!="success"}[15m])) / sum(rate(login_attempts_total[15m]))
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// Audit pipeline metrics — recorded by the audit middleware's async writer.
//
// AuditEntriesWrittenTotal is a CounterVec with label {kind} ("audit" or "action")
// incremented once per entry persisted to the log store.
//
// AuditEntriesDroppedTotal counts entries that could not be persisted (log store
// unavailable or write timeout).  Dropped entries never fail the original request,
// so this counter is the only reliable signal of audit data loss.
//
// Example PromQL queries:
//   - Drop ratio:  rate(audit_entries_dropped_total[5m]) / rate(audit_entries_written_total[5m])
//   - Alert expression: increase(audit_entries_dropped_total[10m]) > 0
var (
	AuditEntriesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_written_total",
			Help: "Total number of audit/action log entries successfully persisted, by kind.",
		},
		[]string{"kind"},
	)

	AuditEntriesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_dropped_total",
			Help: "Total number of audit/action log entries that failed to persist, by kind.",
		},
		[]string{"kind"},
	)
)

// VerificationEmailsSentTotal is a plain Counter (no labels) incremented once per
// verification email successfully handed to the SMTP server.  A stalled counter
// combined with pending unverified accounts is a useful alert signal for SMTP
// delivery failures.
//
// Example PromQL queries:
//   - Rate of emails sent:  rate(verification_emails_sent_total[24h])
var VerificationEmailsSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "verification_emails_sent_total",
		Help: "Total number of verification emails successfully sent.",
	},
)

// GoroutinePanicsTotal counts panics recovered by the safego launcher used for
// background work such as async audit writes and shipper flushes.  Any non-zero
// increase means a background task died mid-flight and should be investigated.
//
// Example PromQL queries:
//   - Alert expression: increase(goroutine_panics_total[10m]) > 0
var GoroutinePanicsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "goroutine_panics_total",
		Help: "Total number of panics recovered in background goroutines.",
	},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
//
// Example PromQL queries:
//   - Pool utilisation (%): db_open_connections / <ADMC_DATABASE_MAX_CONNECTIONS> * 100
//   - Alert on near-exhaustion: db_open_connections > 20  (for max_connections=25)
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
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
