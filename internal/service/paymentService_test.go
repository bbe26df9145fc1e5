package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ds124wfegd/ticket-marketplace/config"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		cost    string
		want    int64
		wantErr bool
	}{
		{cost: "12.5", want: 1250},
		{cost: "45", want: 4500},
		{cost: " 0.015 ", want: 2},
		{cost: "19.994", want: 1999},
		{cost: "0", wantErr: true},
		{cost: "-3", wantErr: true},
		{cost: "abc", wantErr: true},
		{cost: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.cost, func(t *testing.T) {
			got, err := ToMinorUnits(tt.cost)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaymentService_CreateCheckoutSession(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	ticket := f.seedTicket(t, 10)
	booking := f.book(t, ticket.ID, 3)

	svc := NewPaymentService(f.store, f.gateway, config.PaymentConfig{Currency: "USD"})

	session, err := svc.CreateCheckoutSession(ctx, &CheckoutSessionRequest{
		BookingID:     booking.ID,
		Cost:          "45.00",
		CustomerEmail: "customer@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.URL)

	require.Len(t, f.gateway.created, 1)
	req := f.gateway.created[0]
	assert.Equal(t, int64(1500), req.UnitAmount)
	assert.Equal(t, int64(3), req.Quantity)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, booking.ID, req.BookingID)
	assert.Equal(t, ticket.ID, req.TicketID)
	assert.Equal(t, ticket.Title, req.TicketTitle)

	// opening a checkout never touches inventory
	assert.Equal(t, 10, f.quantity(t, ticket.ID))
}

func TestPaymentService_CreateCheckoutSessionErrors(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	ticket := f.seedTicket(t, 10)
	booking := f.book(t, ticket.ID, 3)
	svc := NewPaymentService(f.store, f.gateway, config.PaymentConfig{})

	_, err := svc.CreateCheckoutSession(ctx, &CheckoutSessionRequest{BookingID: "x", Cost: "1"})
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = svc.CreateCheckoutSession(ctx, &CheckoutSessionRequest{BookingID: booking.ID, Cost: "-1"})
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = svc.CreateCheckoutSession(ctx, &CheckoutSessionRequest{BookingID: uuid.NewString(), Cost: "1"})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	f.gateway.err = errors.New("gateway down")
	_, err = svc.CreateCheckoutSession(ctx, &CheckoutSessionRequest{BookingID: booking.ID, Cost: "45"})
	assert.ErrorIs(t, err, entity.ErrInternal)
	f.gateway.err = nil

	_, err = f.svc.ConfirmPayment(ctx, f.gateway.pay(booking, entity.PaymentStatusPaid))
	require.NoError(t, err)

	_, err = svc.CreateCheckoutSession(ctx, &CheckoutSessionRequest{BookingID: booking.ID, Cost: "45"})
	assert.ErrorIs(t, err, entity.ErrConflict)
}

func TestPaymentService_CheckoutChargesBookingTotal(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	ticket := f.seedTicket(t, 10)
	booking := f.book(t, ticket.ID, 3)
	svc := NewPaymentService(f.store, f.gateway, config.PaymentConfig{})

	tests := []struct {
		name string
		cost string
	}{
		{"below total", "0.01"},
		{"above total", "45.01"},
		{"one ticket only", "15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCheckoutSession(ctx, &CheckoutSessionRequest{BookingID: booking.ID, Cost: tt.cost})
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}
	assert.Empty(t, f.gateway.created)

	_, err := svc.CreateCheckoutSession(ctx, &CheckoutSessionRequest{BookingID: booking.ID})
	require.NoError(t, err)
	require.Len(t, f.gateway.created, 1)
	req := f.gateway.created[0]
	assert.Equal(t, int64(4500), req.UnitAmount*req.Quantity)
	assert.Equal(t, "customer@example.com", req.CustomerEmail)
}

func TestPaymentService_HistoryAndRevenue(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	ticket := f.seedTicket(t, 10)
	svc := NewPaymentService(f.store, f.gateway, config.PaymentConfig{})

	for _, q := range []int{2, 3} {
		_, err := f.svc.ConfirmPayment(ctx, f.gateway.pay(f.book(t, ticket.ID, q), entity.PaymentStatusPaid))
		require.NoError(t, err)
	}

	payments, err := svc.ListPayments(ctx, "customer@example.com")
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	payments, err = svc.ListPayments(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, payments)

	revenue, err := svc.VendorRevenue(ctx, "vendor@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7500), revenue.TotalRevenue)
	assert.Equal(t, 5, revenue.TicketsSold)
	assert.Equal(t, 2, revenue.Payments)
	assert.Equal(t, 1, revenue.TicketsListed)
	assert.Equal(t, 5, revenue.ListedQuantity)

	_, err = svc.VendorRevenue(ctx, " ")
	assert.ErrorIs(t, err, entity.ErrValidation)
}
