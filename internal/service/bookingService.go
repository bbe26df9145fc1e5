package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/config"
	repository "github.com/ds124wfegd/ticket-marketplace/internal/database/postgres"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/ds124wfegd/ticket-marketplace/internal/metrics"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

type bookingService struct {
	store       repository.Store
	gateway     PaymentGateway
	queue       TaskPublisher
	maxQuantity int
	staleAfter  time.Duration
}

// NewBookingService создает новый экземпляр BookingService
func NewBookingService(
	store repository.Store,
	gateway PaymentGateway,
	queue TaskPublisher,
	cfg config.BookingConfig,
) BookingService {
	return &bookingService{
		store:       store,
		gateway:     gateway,
		queue:       queue,
		maxQuantity: cfg.MaxQuantity,
		staleAfter:  cfg.StaleAfter,
	}
}

// CreateBooking записывает бронирование в статусе pending. Запас билета не
// уменьшается до подтверждения оплаты.
func (s *bookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (booking *entity.Booking, err error) {
	defer observe("create_booking", time.Now(), &err)

	if err := validateID("ticket", req.TicketID); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", entity.ErrValidation, req.Quantity)
	}
	if s.maxQuantity > 0 && req.Quantity > s.maxQuantity {
		return nil, fmt.Errorf("%w: at most %d tickets per booking", entity.ErrValidation, s.maxQuantity)
	}
	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		return nil, fmt.Errorf("%w: customer email is required", entity.ErrValidation)
	}

	repos := s.store.Repositories()

	ticket, err := repos.Tickets.GetByID(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}

	if req.Quantity > ticket.Quantity {
		return nil, fmt.Errorf("%w: requested %d, available %d",
			entity.ErrInsufficientInventory, req.Quantity, ticket.Quantity)
	}

	now := time.Now().UTC()
	booking = &entity.Booking{
		ID:            uuid.NewString(),
		TicketID:      ticket.ID,
		TicketTitle:   ticket.Title,
		VendorEmail:   ticket.VendorEmail,
		UnitPrice:     ticket.Price,
		CustomerEmail: email,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Quantity:      req.Quantity,
		Status:        entity.BookingStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := repos.Bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"ticket_id":  booking.TicketID,
		"quantity":   booking.Quantity,
	}).Info("Booking created")

	return booking, nil
}

// ConfirmPayment resolves a completed checkout session and applies it to
// the ledger exactly once per gateway transaction.
func (s *bookingService) ConfirmPayment(ctx context.Context, sessionID string) (confirmation *entity.PaymentConfirmation, err error) {
	defer observe("confirm_payment", time.Now(), &err)

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: missing session_id", entity.ErrValidation)
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to retrieve checkout session: %v", entity.ErrInternal, err)
	}
	if session.TransactionID == "" {
		return nil, fmt.Errorf("%w: session %s has no payment reference", entity.ErrPaymentNotVerified, sessionID)
	}

	log := logrus.WithFields(logrus.Fields{
		"session_id":     sessionID,
		"transaction_id": session.TransactionID,
	})

	// Повторная доставка того же платежа
	existing, err := s.store.Repositories().Payments.GetByTransactionID(ctx, session.TransactionID)
	switch {
	case err == nil:
		metrics.DuplicateConfirmations.Inc()
		log.Info("Payment already processed")
		return &entity.PaymentConfirmation{
			BookingID:        existing.BookingID,
			TrackingID:       existing.TrackingID,
			TransactionID:    existing.TransactionID,
			UpdatedQuantity:  s.currentQuantity(ctx, existing.TicketID),
			AlreadyProcessed: true,
		}, nil
	case !errors.Is(err, entity.ErrNotFound):
		return nil, err
	}

	if session.PaymentStatus != entity.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: payment status is %q", entity.ErrPaymentNotVerified, session.PaymentStatus)
	}

	bookingID := session.Metadata[entity.MetadataBookingID]
	if err := validateID("booking", bookingID); err != nil {
		return nil, err
	}

	var booking *entity.Booking
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		booking = b

		if b.Status == entity.BookingStatusPaid {
			confirmation = &entity.PaymentConfirmation{
				BookingID:        b.ID,
				TrackingID:       b.TrackingID,
				TransactionID:    b.TransactionID,
				AlreadyProcessed: true,
			}
			return nil
		}

		_, expected, err := bookingCharge(b)
		if err != nil {
			return err
		}
		if session.AmountTotal != expected {
			log.WithFields(logrus.Fields{
				"booking_id": b.ID,
				"expected":   expected,
				"charged":    session.AmountTotal,
			}).Error("Charged amount does not match booking total")
			return fmt.Errorf("%w: charged %d, booking total is %d", entity.ErrPaymentNotVerified, session.AmountTotal, expected)
		}

		if _, err := repos.Tickets.GetForUpdate(ctx, b.TicketID); err != nil {
			return err
		}

		remaining, err := repos.Tickets.AdjustQuantity(ctx, b.TicketID, -b.Quantity)
		if err != nil {
			if errors.Is(err, entity.ErrInsufficientInventory) {
				metrics.InventoryConflicts.Inc()
				log.WithFields(logrus.Fields{
					"booking_id": b.ID,
					"ticket_id":  b.TicketID,
					"quantity":   b.Quantity,
				}).Error("Paid booking exceeds available inventory")
			}
			return err
		}

		now := time.Now().UTC()
		trackingID := GenerateTrackingID(now)
		if err := repos.Bookings.MarkPaid(ctx, b.ID, trackingID, session.TransactionID); err != nil {
			return err
		}

		customerEmail := session.CustomerEmail
		if customerEmail == "" {
			customerEmail = b.CustomerEmail
		}

		inserted, err := repos.Payments.Create(ctx, &entity.Payment{
			ID:            uuid.NewString(),
			Amount:        session.AmountTotal,
			Currency:      session.Currency,
			CustomerEmail: customerEmail,
			TicketID:      b.TicketID,
			BookingID:     b.ID,
			TicketTitle:   b.TicketTitle,
			VendorEmail:   b.VendorEmail,
			Quantity:      b.Quantity,
			TransactionID: session.TransactionID,
			TrackingID:    trackingID,
			Status:        entity.PaymentStatusPaid,
			PaidAt:        now,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("%w: transaction %s is already recorded", entity.ErrConflict, session.TransactionID)
		}

		confirmation = &entity.PaymentConfirmation{
			BookingID:       b.ID,
			TrackingID:      trackingID,
			TransactionID:   session.TransactionID,
			UpdatedQuantity: &remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if confirmation.AlreadyProcessed {
		confirmation.UpdatedQuantity = s.currentQuantity(ctx, booking.TicketID)
		log.WithField("booking_id", booking.ID).Info("Booking already paid")
		return confirmation, nil
	}

	log.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"ticket_id":   booking.TicketID,
		"tracking_id": confirmation.TrackingID,
		"remaining":   *confirmation.UpdatedQuantity,
	}).Info("Payment confirmed")

	s.publish(ctx, &Task{
		Type: TaskTypeBookingPaid,
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"ticket_id":      booking.TicketID,
			"ticket_title":   booking.TicketTitle,
			"customer_email": booking.CustomerEmail,
			"quantity":       booking.Quantity,
			"tracking_id":    confirmation.TrackingID,
			"remaining":      *confirmation.UpdatedQuantity,
		},
	})

	return confirmation, nil
}

// CancelBooking deletes the booking and, when it was paid, returns its
// seats to the ticket in the same transaction.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (err error) {
	defer observe("cancel_booking", time.Now(), &err)

	if err := validateID("booking", bookingID); err != nil {
		return err
	}

	var (
		booking  *entity.Booking
		restored int
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		b, err := repos.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		booking = b

		if b.Status == entity.BookingStatusPaid {
			_, err := repos.Tickets.GetForUpdate(ctx, b.TicketID)
			switch {
			case err == nil:
				if _, err := repos.Tickets.AdjustQuantity(ctx, b.TicketID, b.Quantity); err != nil {
					return err
				}
				restored = b.Quantity
			case errors.Is(err, entity.ErrNotFound):
				logrus.WithFields(logrus.Fields{
					"booking_id": b.ID,
					"ticket_id":  b.TicketID,
				}).Warn("Ticket of cancelled booking no longer exists, nothing to restore")
			default:
				return err
			}
		}

		deleted, err := repos.Bookings.Delete(ctx, b.ID)
		if err != nil {
			return err
		}
		if deleted != 1 {
			return fmt.Errorf("%w: failed to delete booking %s", entity.ErrInternal, b.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"ticket_id":  booking.TicketID,
		"restored":   restored,
	}).Info("Booking cancelled")

	s.publish(ctx, &Task{
		Type: TaskTypeBookingCancelled,
		Data: map[string]interface{}{
			"booking_id":     booking.ID,
			"ticket_id":      booking.TicketID,
			"ticket_title":   booking.TicketTitle,
			"customer_email": booking.CustomerEmail,
			"restored":       restored,
		},
	})

	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*entity.Booking, error) {
	if err := validateID("booking", id); err != nil {
		return nil, err
	}
	return s.store.Repositories().Bookings.GetByID(ctx, id)
}

func (s *bookingService) ListCustomerBookings(ctx context.Context, email string) ([]*entity.Booking, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email is required", entity.ErrValidation)
	}
	return s.store.Repositories().Bookings.GetByCustomer(ctx, email)
}

func (s *bookingService) ListVendorBookings(ctx context.Context, vendorEmail string) ([]*entity.Booking, error) {
	if strings.TrimSpace(vendorEmail) == "" {
		return nil, fmt.Errorf("%w: vendor email is required", entity.ErrValidation)
	}
	return s.store.Repositories().Bookings.GetByVendor(ctx, vendorEmail)
}

// AuditInventory reports tickets with a negative quantity and pending
// bookings older than the stale threshold. It never repairs anything.
func (s *bookingService) AuditInventory(ctx context.Context) (*InventoryAudit, error) {
	repos := s.store.Repositories()
	now := time.Now().UTC()

	negative, err := repos.Tickets.FindNegativeQuantity(ctx)
	if err != nil {
		return nil, err
	}

	stale, err := repos.Bookings.GetStalePending(ctx, now.Add(-s.staleAfter))
	if err != nil {
		return nil, err
	}

	metrics.NegativeInventoryTickets.Set(float64(len(negative)))
	metrics.StalePendingBookings.Set(float64(len(stale)))

	if len(negative) > 0 {
		ticketIDs := lo.Map(negative, func(t *entity.Ticket, _ int) string { return t.ID })
		s.publish(ctx, &Task{
			Type: TaskTypeInventoryAlert,
			Data: map[string]interface{}{
				"negative_tickets": len(negative),
				"stale_bookings":   len(stale),
				"ticket_ids":       ticketIDs,
			},
		})
	}

	return &InventoryAudit{
		NegativeTickets: negative,
		StaleBookings:   stale,
		CheckedAt:       now,
	}, nil
}

// currentQuantity reads the ticket's quantity for a replayed confirmation.
// It returns nil when the ticket cannot be read so no figure is reported.
func (s *bookingService) currentQuantity(ctx context.Context, ticketID string) *int {
	ticket, err := s.store.Repositories().Tickets.GetByID(ctx, ticketID)
	if err != nil {
		entry := logrus.WithError(err).WithField("ticket_id", ticketID)
		if errors.Is(err, entity.ErrNotFound) {
			entry.Warn("Ticket of a processed payment no longer exists")
		} else {
			entry.Error("Failed to read ticket quantity")
		}
		return nil
	}
	return &ticket.Quantity
}

// publish never fails the caller: notifications are best effort.
func (s *bookingService) publish(ctx context.Context, task *Task) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Publish(ctx, task); err != nil {
		logrus.WithError(err).WithField("task_type", task.Type).Warn("Failed to publish task")
	}
}

func validateID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed %s id %q", entity.ErrValidation, kind, id)
	}
	return nil
}

func observe(operation string, start time.Time, err *error) {
	metrics.LedgerDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	metrics.LedgerOperations.WithLabelValues(operation, outcome(*err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, entity.ErrValidation):
		return "invalid"
	case errors.Is(err, entity.ErrNotFound):
		return "not_found"
	case errors.Is(err, entity.ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, entity.ErrPaymentNotVerified):
		return "not_verified"
	default:
		return "error"
	}
}
