package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/ds124wfegd/ticket-marketplace/internal/database/postgres"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	require.NoError(t, repos.Tickets.Create(ctx, &entity.Ticket{ID: "t1", Quantity: 5}))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if _, err := repos.Tickets.AdjustQuantity(ctx, "t1", -3); err != nil {
			return err
		}
		require.NoError(t, repos.Bookings.Create(ctx, &entity.Booking{ID: "b1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	ticket, err := repos.Tickets.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 5, ticket.Quantity)

	_, err = repos.Bookings.GetByID(ctx, "b1")
	assert.ErrorIs(t, err, entity.ErrBookingNotFound)
}

func TestStore_RollbackKeepsWritesMadeOutsideTx(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()
	require.NoError(t, repos.Tickets.Create(ctx, &entity.Ticket{ID: "t1", Quantity: 1}))

	inTx := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
			if _, err := repos.Tickets.AdjustQuantity(ctx, "t1", -1); err != nil {
				return err
			}
			close(inTx)
			<-release
			return entity.ErrInsufficientInventory
		})
	}()

	<-inTx
	require.NoError(t, repos.Bookings.Create(ctx, &entity.Booking{ID: "b1", TicketID: "t1", Quantity: 2}))
	require.NoError(t, repos.Users.Upsert(ctx, &entity.User{ID: "u1", Email: "a@b.c"}))
	close(release)
	require.ErrorIs(t, <-done, entity.ErrInsufficientInventory)

	_, err := repos.Bookings.GetByID(ctx, "b1")
	assert.NoError(t, err)
	_, err = repos.Users.GetByEmail(ctx, "a@b.c")
	assert.NoError(t, err)

	ticket, err := repos.Tickets.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, ticket.Quantity)
}

func TestStore_RollbackRemovesRowsCreatedInTx(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		require.NoError(t, repos.Vendors.Create(ctx, &entity.Vendor{ID: "v1", Email: "v@b.c"}))
		if _, err := repos.Payments.Create(ctx, &entity.Payment{ID: "p1", TransactionID: "pi_1"}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	repos := store.Repositories()
	_, err = repos.Vendors.GetByID(ctx, "v1")
	assert.ErrorIs(t, err, entity.ErrVendorNotFound)
	_, err = repos.Payments.GetByTransactionID(ctx, "pi_1")
	assert.ErrorIs(t, err, entity.ErrPaymentNotFound)
}

func TestStore_WithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Repositories().Tickets.Create(ctx, &entity.Ticket{ID: "t1", Quantity: 5}))

	err := store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		_, err := repos.Tickets.AdjustQuantity(ctx, "t1", -5)
		return err
	})
	require.NoError(t, err)

	ticket, err := store.Repositories().Tickets.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, ticket.Quantity)
}

func TestTicketRepository_AdjustQuantity(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	require.NoError(t, repos.Tickets.Create(ctx, &entity.Ticket{ID: "t1", Quantity: 2}))

	_, err := repos.Tickets.AdjustQuantity(ctx, "t1", -3)
	assert.ErrorIs(t, err, entity.ErrInsufficientInventory)

	_, err = repos.Tickets.AdjustQuantity(ctx, "missing", 1)
	assert.ErrorIs(t, err, entity.ErrTicketNotFound)

	quantity, err := repos.Tickets.AdjustQuantity(ctx, "t1", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, quantity)
}

func TestTicketRepository_ListFilter(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	now := time.Now()

	require.NoError(t, repos.Tickets.Create(ctx, &entity.Ticket{
		ID: "t1", From: "Dhaka", To: "Sylhet", Status: entity.TicketStatusApproved,
		TransportType: entity.TransportBus, CreatedAt: now.Add(-time.Hour),
	}))
	require.NoError(t, repos.Tickets.Create(ctx, &entity.Ticket{
		ID: "t2", From: "Dhaka", To: "Khulna", Status: entity.TicketStatusApproved,
		TransportType: entity.TransportTrain, CreatedAt: now,
	}))
	require.NoError(t, repos.Tickets.Create(ctx, &entity.Ticket{
		ID: "t3", From: "Dhaka", To: "Sylhet", Status: entity.TicketStatusPending,
		TransportType: entity.TransportBus, CreatedAt: now,
	}))

	tickets, err := repos.Tickets.List(ctx, entity.TicketFilter{Status: entity.TicketStatusApproved, From: "dhaka"})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "t2", tickets[0].ID)

	tickets, err = repos.Tickets.List(ctx, entity.TicketFilter{To: "syl", TransportType: entity.TransportBus})
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}

func TestPaymentRepository_CreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	inserted, err := repos.Payments.Create(ctx, &entity.Payment{ID: "p1", TransactionID: "pi_1", Amount: 100})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repos.Payments.Create(ctx, &entity.Payment{ID: "p2", TransactionID: "pi_1", Amount: 100})
	require.NoError(t, err)
	assert.False(t, inserted)

	payments, err := repos.Payments.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestUserRepository_UpsertKeepsRole(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	require.NoError(t, repos.Users.Upsert(ctx, &entity.User{ID: "u1", Email: "a@b.c", Name: "A", Role: entity.RoleUser}))
	require.NoError(t, repos.Users.UpdateRole(ctx, "a@b.c", entity.RoleVendor))

	user := &entity.User{ID: "u2", Email: "a@b.c", Name: "Renamed", Role: entity.RoleUser}
	require.NoError(t, repos.Users.Upsert(ctx, user))
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, entity.RoleVendor, user.Role)
	assert.Equal(t, "Renamed", user.Name)
}
