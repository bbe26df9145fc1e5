package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerOperations counts booking ledger operations by outcome
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "operations_total",
			Help:      "The total number of booking ledger operations",
		},
		[]string{"operation", "status"},
	)

	// InventoryConflicts counts confirmations rejected because the ticket had too few seats
	InventoryConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "inventory_conflicts_total",
			Help:      "Payments that could not be applied to ticket inventory",
		},
	)

	// DuplicateConfirmations counts confirmations short-circuited by the idempotency guard
	DuplicateConfirmations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "duplicate_confirmations_total",
			Help:      "Payment confirmations that were already processed",
		},
	)

	LedgerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of booking ledger operations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	NegativeInventoryTickets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inventory",
			Name:      "negative_quantity_tickets",
			Help:      "Tickets whose available quantity is below zero at the last audit",
		},
	)

	StalePendingBookings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inventory",
			Name:      "stale_pending_bookings",
			Help:      "Pending bookings older than the stale threshold at the last audit",
		},
	)

	QueueTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "queue",
			Name:      "tasks_total",
			Help:      "Notification tasks by type and outcome",
		},
		[]string{"type", "status"},
	)
)
