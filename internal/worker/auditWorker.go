package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/internal/service"

	"github.com/sirupsen/logrus"
)

// InventoryAuditor is the part of the booking ledger the worker needs.
type InventoryAuditor interface {
	AuditInventory(ctx context.Context) (*service.InventoryAudit, error)
}

// InventoryAuditWorker periodically reports ledger anomalies. It never
// changes data: negative quantities and stale pending bookings are logged
// for an operator to resolve.
type InventoryAuditWorker struct {
	auditor  InventoryAuditor
	interval time.Duration
}

func NewInventoryAuditWorker(auditor InventoryAuditor, interval time.Duration) *InventoryAuditWorker {
	return &InventoryAuditWorker{
		auditor:  auditor,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled.
func (w *InventoryAuditWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval.String()).Info("Inventory audit worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Inventory audit worker stopped")
			return
		case <-ticker.C:
			w.runAudit(ctx)
		}
	}
}

// runAudit выполняет одну проверку запасов
func (w *InventoryAuditWorker) runAudit(ctx context.Context) {
	audit, err := w.auditor.AuditInventory(ctx)
	if err != nil {
		logrus.Errorf("Inventory audit failed: %v", err)
		return
	}

	if len(audit.NegativeTickets) == 0 && len(audit.StaleBookings) == 0 {
		logrus.Debug("Inventory audit found no anomalies")
		return
	}

	for _, ticket := range audit.NegativeTickets {
		logrus.WithFields(logrus.Fields{
			"ticket_id": ticket.ID,
			"vendor":    ticket.VendorEmail,
			"quantity":  ticket.Quantity,
		}).Error("Ticket has negative quantity")
	}

	for _, booking := range audit.StaleBookings {
		logrus.WithFields(logrus.Fields{
			"booking_id": booking.BookingID,
			"ticket_id":  booking.TicketID,
			"created_at": booking.CreatedAt,
		}).Warn("Pending booking was never paid")
	}

	logrus.Infof("Inventory audit completed: %d negative tickets, %d stale bookings",
		len(audit.NegativeTickets), len(audit.StaleBookings))
}
