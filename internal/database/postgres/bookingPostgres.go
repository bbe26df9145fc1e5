package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/jmoiron/sqlx"
)

const bookingColumns = `
	id, ticket_id, ticket_title, vendor_email, unit_price, customer_email,
	customer_name, quantity, status, tracking_id, transaction_id,
	created_at, updated_at`

type bookingRepository struct {
	db sqlx.ExtContext
}

func NewBookingRepository(db sqlx.ExtContext) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (
			:id, :ticket_id, :ticket_title, :vendor_email, :unit_price, :customer_email,
			:customer_name, :quantity, :status, :tracking_id, :transaction_id,
			:created_at, :updated_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID
func (r *bookingRepository) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

// GetForUpdate retrieves a booking with a lock for update
func (r *bookingRepository) GetForUpdate(ctx context.Context, id string) (*entity.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookingRepository) get(ctx context.Context, query, id string) (*entity.Booking, error) {
	var booking entity.Booking
	err := sqlx.GetContext(ctx, r.db, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) MarkPaid(ctx context.Context, id, trackingID, transactionID string) error {
	query := `
		UPDATE bookings
		SET status = $1, tracking_id = $2, transaction_id = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		entity.BookingStatusPaid, trackingID, transactionID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	return expectOneRow(result, entity.ErrBookingNotFound)
}

func (r *bookingRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete booking: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// GetByCustomer retrieves all bookings made by a customer, newest first
func (r *bookingRepository) GetByCustomer(ctx context.Context, email string) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	err := sqlx.SelectContext(ctx, r.db, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE customer_email = $1 ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings by customer: %w", err)
	}
	return bookings, nil
}

// GetByVendor retrieves all bookings placed against a vendor's tickets
func (r *bookingRepository) GetByVendor(ctx context.Context, vendorEmail string) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	err := sqlx.SelectContext(ctx, r.db, &bookings,
		`SELECT `+bookingColumns+` FROM bookings WHERE vendor_email = $1 ORDER BY created_at DESC`, vendorEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings by vendor: %w", err)
	}
	return bookings, nil
}

// GetStalePending retrieves pending bookings created before the given time
func (r *bookingRepository) GetStalePending(ctx context.Context, before time.Time) ([]*entity.StaleBooking, error) {
	query := `
		SELECT id, ticket_id, customer_email, quantity, created_at
		FROM bookings
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC`

	var bookings []*entity.StaleBooking
	if err := sqlx.SelectContext(ctx, r.db, &bookings, query, before); err != nil {
		return nil, fmt.Errorf("failed to query stale bookings: %w", err)
	}
	return bookings, nil
}
