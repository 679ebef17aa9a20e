// Package metrics defines and registers all custom Prometheus metrics for the
// document repository. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on import through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docrepo"

// ── Repository metrics ───────────────────────────────────────────────────────

// OperationsTotal counts repository facade operations.
// Labels:
//   - entity: "user", "document", "structure"
//   - action: "list", "read", "create", "update", "remove"
//   - outcome: domain.ErrorKind of the result ("ok", "forbidden", "not_found", …)
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of repository operations, by entity, action and outcome.",
	},
	[]string{"entity", "action", "outcome"},
)

// PermissionDenialsTotal counts actions refused by the permission engine.
var PermissionDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_denials_total",
		Help:      "Total number of actions denied by the permission engine.",
	},
	[]string{"entity", "action"},
)

// BootstrapSeededTotal counts default entities inserted by bootstrap.
// Label:
//   - collection: "users", "documents", "structures"
var BootstrapSeededTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bootstrap_seeded_total",
		Help:      "Total number of default entities inserted at bootstrap.",
	},
	[]string{"collection"},
)

// ── Audit metrics ────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by persistence result ("stored", "failed").
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events processed, labelled by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Store metrics ────────────────────────────────────────────────────────────

// StoreCompactionsTotal counts embedded store compactions.
// Labels:
//   - collection: collection file name
//   - result: "ok" or "error"
var StoreCompactionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_compactions_total",
		Help:      "Total number of embedded store compactions, by collection and result.",
	},
	[]string{"collection", "result"},
)

// StoreCompactionDuration measures how long a compaction holds a collection.
var StoreCompactionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_compaction_duration_seconds",
		Help:      "Duration of embedded store compactions.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"collection"},
)
