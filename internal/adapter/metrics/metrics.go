package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuditMetrics holds all Prometheus metrics for the audit subsystem.
type AuditMetrics struct {
	EventsRecorded        *prometheus.CounterVec
	StoreFailures         *prometheus.CounterVec
	FailedLogins          prometheus.Counter
	FailedLoginsThrottled prometheus.Counter
	OpenSessions          prometheus.Gauge
}

// NewAuditMetrics initializes and registers the Prometheus metrics.
func NewAuditMetrics() *AuditMetrics {
	return &AuditMetrics{
		EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory_audit",
			Subsystem: "sessions",
			Name:      "events_recorded_total",
			Help:      "Total number of audit events recorded, by type and priority.",
		}, []string{"type", "priority"}), // priority: normal, critical
		StoreFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory_audit",
			Subsystem: "store",
			Name:      "failures_total",
			Help:      "Total number of absorbed log store failures, by operation.",
		}, []string{"op"}), // op: create, append, finalize, list, search, failed_login, locator_map
		FailedLogins: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "inventory_audit",
			Subsystem: "sessions",
			Name:      "failed_logins_total",
			Help:      "Total number of failed-login diagnostic records written.",
		}),
		FailedLoginsThrottled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "inventory_audit",
			Subsystem: "sessions",
			Name:      "failed_logins_throttled_total",
			Help:      "Total number of failed-login records dropped by the rate limiter.",
		}),
		OpenSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "inventory_audit",
			Subsystem: "sessions",
			Name:      "open_sessions_gauge",
			Help:      "Number of sessions currently tracked by the locator map.",
		}),
	}
}
