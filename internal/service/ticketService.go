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
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ticketService struct {
	store         repository.Store
	maxAdvertised int
}

func NewTicketService(store repository.Store, cfg config.InventoryConfig) TicketService {
	return &ticketService{
		store:         store,
		maxAdvertised: cfg.MaxAdvertised,
	}
}

func (s *ticketService) CreateTicket(ctx context.Context, vendorEmail string, req *TicketRequest) (*entity.Ticket, error) {
	repos := s.store.Repositories()

	user, err := repos.Users.GetByEmail(ctx, vendorEmail)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}
	if user != nil && user.Fraud {
		return nil, fmt.Errorf("%w: vendor %s is marked as fraud", entity.ErrForbidden, vendorEmail)
	}

	price, err := validateTicketRequest(req)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", entity.ErrValidation)
	}

	vendorName := strings.TrimSpace(req.VendorName)
	if vendorName == "" && user != nil {
		vendorName = user.Name
	}

	now := time.Now().UTC()
	ticket := &entity.Ticket{
		ID:            uuid.NewString(),
		VendorEmail:   vendorEmail,
		VendorName:    vendorName,
		Title:         strings.TrimSpace(req.Title),
		From:          strings.TrimSpace(req.From),
		To:            strings.TrimSpace(req.To),
		TransportType: req.TransportType,
		Price:         price,
		Quantity:      req.Quantity,
		DepartureAt:   req.DepartureAt.UTC(),
		Perks:         req.Perks,
		ImageURL:      req.ImageURL,
		Status:        entity.TicketStatusPending,
		Advertised:    false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := repos.Tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"vendor":    vendorEmail,
		"quantity":  ticket.Quantity,
	}).Info("Ticket created")

	return ticket, nil
}

func (s *ticketService) GetTicket(ctx context.Context, id string) (*entity.Ticket, error) {
	if err := validateID("ticket", id); err != nil {
		return nil, err
	}
	return s.store.Repositories().Tickets.GetByID(ctx, id)
}

// ListApproved is the public catalogue; the status in filter is overridden.
func (s *ticketService) ListApproved(ctx context.Context, filter entity.TicketFilter) ([]*entity.Ticket, error) {
	if filter.TransportType != "" && !filter.TransportType.Valid() {
		return nil, fmt.Errorf("%w: unknown transport type %q", entity.ErrValidation, filter.TransportType)
	}
	filter.Status = entity.TicketStatusApproved
	return s.store.Repositories().Tickets.List(ctx, filter)
}

func (s *ticketService) ListAdvertised(ctx context.Context) ([]*entity.Ticket, error) {
	return s.store.Repositories().Tickets.List(ctx, entity.TicketFilter{
		Status:     entity.TicketStatusApproved,
		Advertised: lo.ToPtr(true),
	})
}

func (s *ticketService) ListByVendor(ctx context.Context, vendorEmail string) ([]*entity.Ticket, error) {
	return s.store.Repositories().Tickets.List(ctx, entity.TicketFilter{VendorEmail: vendorEmail})
}

func (s *ticketService) ListAll(ctx context.Context) ([]*entity.Ticket, error) {
	return s.store.Repositories().Tickets.List(ctx, entity.TicketFilter{})
}

// UpdateTicket changes the listing fields of a vendor's own ticket. Status,
// advertisement and ownership are not editable here.
func (s *ticketService) UpdateTicket(ctx context.Context, vendorEmail, id string, req *TicketRequest) (*entity.Ticket, error) {
	if err := validateID("ticket", id); err != nil {
		return nil, err
	}

	price, err := validateTicketRequest(req)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", entity.ErrValidation)
	}

	var ticket *entity.Ticket
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		t, err := repos.Tickets.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t.VendorEmail != vendorEmail {
			return fmt.Errorf("%w: ticket belongs to another vendor", entity.ErrForbidden)
		}

		t.Title = strings.TrimSpace(req.Title)
		t.From = strings.TrimSpace(req.From)
		t.To = strings.TrimSpace(req.To)
		t.TransportType = req.TransportType
		t.Price = price
		t.Quantity = req.Quantity
		t.DepartureAt = req.DepartureAt.UTC()
		t.Perks = req.Perks
		t.ImageURL = req.ImageURL

		ticket = t
		return repos.Tickets.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// DeleteTicket removes a ticket. An empty vendorEmail skips the ownership
// check and is used by admins.
func (s *ticketService) DeleteTicket(ctx context.Context, vendorEmail, id string) error {
	if err := validateID("ticket", id); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		t, err := repos.Tickets.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if vendorEmail != "" && t.VendorEmail != vendorEmail {
			return fmt.Errorf("%w: ticket belongs to another vendor", entity.ErrForbidden)
		}
		return repos.Tickets.Delete(ctx, id)
	})
}

func (s *ticketService) UpdateStatus(ctx context.Context, id string, status entity.TicketStatus) error {
	if err := validateID("ticket", id); err != nil {
		return err
	}
	if status != entity.TicketStatusApproved && status != entity.TicketStatusRejected {
		return fmt.Errorf("%w: status must be approved or rejected", entity.ErrValidation)
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		t, err := repos.Tickets.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if status == entity.TicketStatusRejected && t.Advertised {
			if err := repos.Tickets.SetAdvertised(ctx, id, false); err != nil {
				return err
			}
		}
		return repos.Tickets.UpdateStatus(ctx, id, status)
	})
}

// SetAdvertised toggles the homepage advertisement. Only approved tickets
// qualify and at most maxAdvertised can be advertised at once.
func (s *ticketService) SetAdvertised(ctx context.Context, id string, advertised bool) error {
	if err := validateID("ticket", id); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		t, err := repos.Tickets.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if advertised && !t.Advertised {
			if t.Status != entity.TicketStatusApproved {
				return fmt.Errorf("%w: only approved tickets can be advertised", entity.ErrValidation)
			}
			if err := repos.Tickets.LockAdvertising(ctx); err != nil {
				return err
			}
			count, err := repos.Tickets.CountAdvertised(ctx)
			if err != nil {
				return err
			}
			if count >= s.maxAdvertised {
				return fmt.Errorf("%w: at most %d tickets can be advertised", entity.ErrValidation, s.maxAdvertised)
			}
		}

		return repos.Tickets.SetAdvertised(ctx, id, advertised)
	})
}

func validateTicketRequest(req *TicketRequest) (decimal.Decimal, error) {
	if strings.TrimSpace(req.Title) == "" {
		return decimal.Zero, fmt.Errorf("%w: title is required", entity.ErrValidation)
	}
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "" {
		return decimal.Zero, fmt.Errorf("%w: from and to are required", entity.ErrValidation)
	}
	if !req.TransportType.Valid() {
		return decimal.Zero, fmt.Errorf("%w: unknown transport type %q", entity.ErrValidation, req.TransportType)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q is not a number", entity.ErrValidation, req.Price)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price must be positive", entity.ErrValidation)
	}

	return price.Round(2), nil
}
