package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/jmoiron/sqlx"
)

// advertisingLockKey identifies the transaction-level advisory lock that
// guards the advertised ticket limit.
const advertisingLockKey = 720_001

const ticketColumns = `
	id, vendor_email, vendor_name, title, from_location, to_location,
	transport_type, price, quantity, departure_at, perks, image_url,
	status, advertised, created_at, updated_at`

type ticketRepository struct {
	db sqlx.ExtContext
}

func NewTicketRepository(db sqlx.ExtContext) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES (
			:id, :vendor_email, :vendor_name, :title, :from_location, :to_location,
			:transport_type, :price, :quantity, :departure_at, :perks, :image_url,
			:status, :advertised, :created_at, :updated_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, ticket); err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*entity.Ticket, error) {
	return r.get(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
}

// GetForUpdate locks the ticket row until the surrounding transaction ends.
func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*entity.Ticket, error) {
	return r.get(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id)
}

func (r *ticketRepository) get(ctx context.Context, query, id string) (*entity.Ticket, error) {
	var ticket entity.Ticket
	err := sqlx.GetContext(ctx, r.db, &ticket, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter entity.TicketFilter) ([]*entity.Ticket, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.VendorEmail != "" {
		add("vendor_email = $%d", filter.VendorEmail)
	}
	if filter.From != "" {
		add("from_location ILIKE $%d", "%"+filter.From+"%")
	}
	if filter.To != "" {
		add("to_location ILIKE $%d", "%"+filter.To+"%")
	}
	if filter.TransportType != "" {
		add("transport_type = $%d", filter.TransportType)
	}
	if filter.Advertised != nil {
		add("advertised = $%d", *filter.Advertised)
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	var tickets []*entity.Ticket
	if err := sqlx.SelectContext(ctx, r.db, &tickets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// Update changes the vendor-editable fields. Quantity is written as given;
// the ledger uses AdjustQuantity instead.
func (r *ticketRepository) Update(ctx context.Context, ticket *entity.Ticket) error {
	ticket.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tickets
		SET title = :title, from_location = :from_location, to_location = :to_location,
		    transport_type = :transport_type, price = :price, quantity = :quantity,
		    departure_at = :departure_at, perks = :perks, image_url = :image_url,
		    updated_at = :updated_at
		WHERE id = :id`

	result, err := sqlx.NamedExecContext(ctx, r.db, query, ticket)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	return expectOneRow(result, entity.ErrTicketNotFound)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return expectOneRow(result, entity.ErrTicketNotFound)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status entity.TicketStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	return expectOneRow(result, entity.ErrTicketNotFound)
}

func (r *ticketRepository) UpdateStatusByVendor(ctx context.Context, vendorEmail string, status entity.TicketStatus) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET status = $1, advertised = FALSE, updated_at = $2 WHERE vendor_email = $3`,
		status, time.Now().UTC(), vendorEmail)
	if err != nil {
		return 0, fmt.Errorf("failed to update vendor tickets: %w", err)
	}
	return result.RowsAffected()
}

func (r *ticketRepository) SetAdvertised(ctx context.Context, id string, advertised bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET advertised = $1, updated_at = $2 WHERE id = $3`,
		advertised, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update ticket advertisement: %w", err)
	}
	return expectOneRow(result, entity.ErrTicketNotFound)
}

func (r *ticketRepository) CountAdvertised(ctx context.Context) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM tickets WHERE advertised = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("failed to count advertised tickets: %w", err)
	}
	return count, nil
}

func (r *ticketRepository) LockAdvertising(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advertisingLockKey); err != nil {
		return fmt.Errorf("failed to lock advertised tickets: %w", err)
	}
	return nil
}

func (r *ticketRepository) AdjustQuantity(ctx context.Context, id string, delta int) (int, error) {
	var quantity int
	err := sqlx.GetContext(ctx, r.db, &quantity, `
		UPDATE tickets
		SET quantity = quantity + $1, updated_at = $2
		WHERE id = $3 AND quantity + $1 >= 0
		RETURNING quantity`,
		delta, time.Now().UTC(), id)
	if err == nil {
		return quantity, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to adjust ticket quantity: %w", err)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id = $1)`, id); err != nil {
		return 0, fmt.Errorf("failed to check ticket: %w", err)
	}
	if !exists {
		return 0, entity.ErrTicketNotFound
	}
	return 0, fmt.Errorf("%w: cannot apply %d to ticket %s", entity.ErrInsufficientInventory, delta, id)
}

func (r *ticketRepository) FindNegativeQuantity(ctx context.Context) ([]*entity.Ticket, error) {
	var tickets []*entity.Ticket
	err := sqlx.SelectContext(ctx, r.db, &tickets,
		`SELECT `+ticketColumns+` FROM tickets WHERE quantity < 0 ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query negative quantity tickets: %w", err)
	}
	return tickets, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
