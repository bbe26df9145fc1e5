package service

import (
	"context"
	"testing"

	"github.com/ds124wfegd/ticket-marketplace/config"
	"github.com/ds124wfegd/ticket-marketplace/internal/database/memory"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpsertKeepsRole(t *testing.T) {
	store := memory.NewStore()
	svc := NewUserService(store)
	ctx := context.Background()

	user, err := svc.UpsertUser(ctx, &UpsertUserRequest{Email: "rahim@example.com", Name: "Rahim"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, user.Role)

	require.NoError(t, svc.UpdateRole(ctx, "rahim@example.com", entity.RoleAdmin))

	user, err = svc.UpsertUser(ctx, &UpsertUserRequest{Email: "rahim@example.com", Name: "Rahim Uddin"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, user.Role)
	assert.Equal(t, "Rahim Uddin", user.Name)

	role, err := svc.GetRole(ctx, "rahim@example.com")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, role)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_Errors(t *testing.T) {
	svc := NewUserService(memory.NewStore())
	ctx := context.Background()

	_, err := svc.UpsertUser(ctx, &UpsertUserRequest{Email: " "})
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = svc.GetRole(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	assert.ErrorIs(t, svc.UpdateRole(ctx, "ghost@example.com", "owner"), entity.ErrValidation)
	assert.ErrorIs(t, svc.UpdateRole(ctx, "ghost@example.com", entity.RoleVendor), entity.ErrNotFound)
}

func TestUserService_MarkFraudRejectsTickets(t *testing.T) {
	store := memory.NewStore()
	users := NewUserService(store)
	tickets := NewTicketService(store, config.InventoryConfig{MaxAdvertised: 6})
	ctx := context.Background()

	_, err := users.UpsertUser(ctx, &UpsertUserRequest{Email: vendorEmail, Name: "Green Line"})
	require.NoError(t, err)

	// plain users cannot be flagged
	assert.ErrorIs(t, users.MarkFraud(ctx, vendorEmail), entity.ErrValidation)

	require.NoError(t, users.UpdateRole(ctx, vendorEmail, entity.RoleVendor))
	ticket, err := tickets.CreateTicket(ctx, vendorEmail, newTicketRequest())
	require.NoError(t, err)
	require.NoError(t, tickets.UpdateStatus(ctx, ticket.ID, entity.TicketStatusApproved))
	require.NoError(t, tickets.SetAdvertised(ctx, ticket.ID, true))

	require.NoError(t, users.MarkFraud(ctx, vendorEmail))

	user, err := users.GetUser(ctx, vendorEmail)
	require.NoError(t, err)
	assert.True(t, user.Fraud)

	stored, err := tickets.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TicketStatusRejected, stored.Status)
	assert.False(t, stored.Advertised)

	_, err = tickets.CreateTicket(ctx, vendorEmail, newTicketRequest())
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestVendorService_ApplyAndApprove(t *testing.T) {
	store := memory.NewStore()
	users := NewUserService(store)
	vendors := NewVendorService(store)
	ctx := context.Background()

	_, err := users.UpsertUser(ctx, &UpsertUserRequest{Email: "karim@example.com", Name: "Karim"})
	require.NoError(t, err)

	application, err := vendors.Apply(ctx, "karim@example.com", &VendorApplicationRequest{Name: "Karim Travels"})
	require.NoError(t, err)
	assert.Equal(t, entity.VendorStatusPending, application.Status)

	_, err = vendors.Apply(ctx, "karim@example.com", &VendorApplicationRequest{Name: "Karim Travels"})
	assert.ErrorIs(t, err, entity.ErrConflict)

	pending, err := vendors.List(ctx, entity.VendorStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	assert.ErrorIs(t, vendors.UpdateStatus(ctx, application.ID, entity.VendorStatusPending), entity.ErrValidation)
	require.NoError(t, vendors.UpdateStatus(ctx, application.ID, entity.VendorStatusApproved))

	role, err := users.GetRole(ctx, "karim@example.com")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleVendor, role)

	pending, err = vendors.List(ctx, entity.VendorStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestVendorService_RejectKeepsRole(t *testing.T) {
	store := memory.NewStore()
	users := NewUserService(store)
	vendors := NewVendorService(store)
	ctx := context.Background()

	_, err := users.UpsertUser(ctx, &UpsertUserRequest{Email: "karim@example.com"})
	require.NoError(t, err)
	application, err := vendors.Apply(ctx, "karim@example.com", &VendorApplicationRequest{Name: "Karim Travels"})
	require.NoError(t, err)

	require.NoError(t, vendors.UpdateStatus(ctx, application.ID, entity.VendorStatusRejected))

	role, err := users.GetRole(ctx, "karim@example.com")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, role)

	_, err = vendors.Apply(ctx, "karim@example.com", &VendorApplicationRequest{Name: " "})
	assert.ErrorIs(t, err, entity.ErrValidation)
}
