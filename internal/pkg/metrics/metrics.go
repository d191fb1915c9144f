// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto and exposed by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Marketplace metrics ───────────────────────────────────────────────────────

// RequestsCreatedTotal counts newly posted service requests.
// Label:
//   - category: the request category as entered by the client
var RequestsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_created_total",
		Help:      "Total number of service requests created, by category.",
	},
	[]string{"category"},
)

// ProposalTransitionsTotal counts proposal status changes.
// Label:
//   - status: "pending" on submission, then "accepted", "rejected" or "frozen"
var ProposalTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proposal_transitions_total",
		Help:      "Total number of proposal status changes, by resulting status.",
	},
	[]string{"status"},
)

// AcceptanceConflictsTotal counts acceptance attempts that lost a race with a
// concurrent writer.
var AcceptanceConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "acceptance_conflicts_total",
		Help:      "Total number of proposal acceptances aborted by a concurrent status change.",
	},
)

// OrderTransitionsTotal counts order status changes.
// Label:
//   - status: the resulting order status
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of order status changes, by resulting status.",
	},
	[]string{"status"},
)

// IdempotencyTotal counts idempotency-key lookups.
// Label:
//   - result: "hit" (replayed) or "miss" (new resource created)
var IdempotencyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_total",
		Help:      "Total number of idempotency-key lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsDeliveredTotal counts notifications persisted and published.
// Label:
//   - type: the notification type (e.g. "proposal_accepted")
var NotificationsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_delivered_total",
		Help:      "Total number of notifications delivered, by type.",
	},
	[]string{"type"},
)

// NotificationErrorsTotal counts notification delivery failures.
// Label:
//   - reason: "persist_failed", "publish_failed" or "queue_full"
var NotificationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_errors_total",
		Help:      "Total number of notifications that failed delivery.",
	},
	[]string{"reason"},
)

// NotificationQueueDepth tracks the number of notifications waiting in each
// dispatcher worker channel.
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDeliveryDuration measures dequeue-to-publish latency.
var NotificationDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_delivery_duration_seconds",
		Help:      "Duration of notification delivery from dequeue to publish.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// RealtimeSubscribers tracks open SSE connections on this instance.
var RealtimeSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_subscribers",
		Help:      "Current number of connected server-sent event streams.",
	},
)

// ── Ledger metrics ────────────────────────────────────────────────────────────

// TransactionsTotal counts ledger status changes.
// Labels:
//   - type: transaction type (e.g. "membership_payment")
//   - status: resulting status ("pending", "completed", "refunded")
var TransactionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_total",
		Help:      "Total number of ledger transactions by type and status.",
	},
	[]string{"type", "status"},
)

// PlatformRevenueTotal sums platform share booked on completion. Refunds are
// tracked separately because counters cannot decrease.
var PlatformRevenueTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "platform_revenue_total",
		Help:      "Platform share booked on completed transactions, by type.",
	},
	[]string{"type"},
)

// PlatformRefundsTotal sums platform share reversed by refunds.
var PlatformRefundsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "platform_refunds_total",
		Help:      "Platform share reversed by refunds, by type.",
	},
	[]string{"type"},
)
