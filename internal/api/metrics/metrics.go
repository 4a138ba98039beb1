// Package metrics defines and registers the custom Prometheus metrics of the
// booking API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Collectors are registered with the default registry through promauto when
// the package is loaded; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booking"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginAttemptsTotal counts login requests by outcome.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRejectionsTotal counts bearer tokens refused by the identity filter.
// Label:
//   - reason: "invalid_token" or "principal_not_found"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of bearer tokens rejected, by reason.",
	},
	[]string{"reason"},
)

// ── Registration metrics ──────────────────────────────────────────────────────

// RegistrationsTotal counts created accounts.
// Label:
//   - role: "CLIENT" or "PROFESSIONAL"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts created, by role.",
	},
	[]string{"role"},
)

// RegistrationConflictsTotal counts registrations refused because the email
// was taken or being registered concurrently.
var RegistrationConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_conflicts_total",
		Help:      "Total number of registrations rejected for an already used email.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsPersistedTotal counts audit events written to storage.
var AuditEventsPersistedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_persisted_total",
		Help:      "Total number of audit events persisted.",
	},
)

// AuditEventsDroppedTotal counts audit events that never reached storage.
// Label:
//   - reason: "queue_full", "closed" or "insert_failed"
var AuditEventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped, by reason.",
	},
	[]string{"reason"},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
