package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ds124wfegd/ticket-marketplace/config"
	repository "github.com/ds124wfegd/ticket-marketplace/internal/database/postgres"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var minorUnits = decimal.NewFromInt(100)

type paymentService struct {
	store    repository.Store
	gateway  PaymentGateway
	currency string
}

func NewPaymentService(store repository.Store, gateway PaymentGateway, cfg config.PaymentConfig) PaymentService {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &paymentService{
		store:    store,
		gateway:  gateway,
		currency: currency,
	}
}

// CreateCheckoutSession opens a hosted checkout for a pending booking. The
// charge is the booking's unit price times its quantity; a client supplied
// cost is only accepted when it matches that total.
func (s *paymentService) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*entity.CheckoutSession, error) {
	if err := validateID("booking", req.BookingID); err != nil {
		return nil, err
	}

	booking, err := s.store.Repositories().Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is already %s", entity.ErrConflict, booking.ID, booking.Status)
	}

	unitAmount, total, err := bookingCharge(booking)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Cost) != "" {
		cost, err := ToMinorUnits(req.Cost)
		if err != nil {
			return nil, err
		}
		if cost != total {
			return nil, fmt.Errorf("%w: cost %s does not match booking total %s",
				entity.ErrValidation, req.Cost, booking.TotalPrice().StringFixed(2))
		}
	}

	title := strings.TrimSpace(req.TicketTitle)
	if title == "" {
		title = booking.TicketTitle
	}
	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		email = booking.CustomerEmail
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &entity.CheckoutRequest{
		BookingID:     booking.ID,
		TicketID:      booking.TicketID,
		TicketTitle:   title,
		UnitAmount:    unitAmount,
		Quantity:      int64(booking.Quantity),
		Currency:      s.currency,
		CustomerEmail: email,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create checkout session: %v", entity.ErrInternal, err)
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"session_id": session.ID,
		"amount":     total,
	}).Info("Checkout session created")

	return session, nil
}

func (s *paymentService) ListPayments(ctx context.Context, customerEmail string) ([]*entity.Payment, error) {
	return s.store.Repositories().Payments.List(ctx, strings.TrimSpace(customerEmail))
}

func (s *paymentService) VendorRevenue(ctx context.Context, vendorEmail string) (*entity.VendorRevenue, error) {
	if strings.TrimSpace(vendorEmail) == "" {
		return nil, fmt.Errorf("%w: vendor email is required", entity.ErrValidation)
	}
	return s.store.Repositories().Payments.VendorRevenue(ctx, vendorEmail)
}

// ToMinorUnits converts a decimal amount such as "12.5" into cents,
// rounding half away from zero.
func ToMinorUnits(cost string) (int64, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(cost))
	if err != nil {
		return 0, fmt.Errorf("%w: cost %q is not a number", entity.ErrValidation, cost)
	}

	amount := value.Mul(minorUnits).Round(0)
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: cost must be positive", entity.ErrValidation)
	}
	return amount.IntPart(), nil
}

// bookingCharge returns the per-ticket and total charge for a booking in
// minor units.
func bookingCharge(b *entity.Booking) (unit, total int64, err error) {
	unit, err = ToMinorUnits(b.UnitPrice.String())
	if err != nil {
		return 0, 0, fmt.Errorf("%w: booking %s has no chargeable price", entity.ErrValidation, b.ID)
	}
	return unit, unit * int64(b.Quantity), nil
}
