package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/jmoiron/sqlx"
)

const paymentColumns = `
	id, amount, currency, customer_email, ticket_id, booking_id, ticket_title,
	vendor_email, quantity, transaction_id, tracking_id, status, paid_at`

type paymentRepository struct {
	db sqlx.ExtContext
}

func NewPaymentRepository(db sqlx.ExtContext) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) (bool, error) {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (
			:id, :amount, :currency, :customer_email, :ticket_id, :booking_id, :ticket_title,
			:vendor_email, :quantity, :transaction_id, :tracking_id, :status, :paid_at
		)
		ON CONFLICT (transaction_id) DO NOTHING`

	result, err := sqlx.NamedExecContext(ctx, r.db, query, payment)
	if err != nil {
		return false, fmt.Errorf("failed to create payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	var payment entity.Payment
	err := sqlx.GetContext(ctx, r.db, &payment,
		`SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, customerEmail string) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
	var args []interface{}
	if customerEmail != "" {
		query += ` WHERE customer_email = $1`
		args = append(args, customerEmail)
	}
	query += ` ORDER BY paid_at DESC`

	var payments []*entity.Payment
	if err := sqlx.SelectContext(ctx, r.db, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) VendorRevenue(ctx context.Context, vendorEmail string) (*entity.VendorRevenue, error) {
	revenue := &entity.VendorRevenue{VendorEmail: vendorEmail}

	err := r.db.QueryRowxContext(ctx, `
		SELECT
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(quantity), 0),
			COUNT(*)
		FROM payments
		WHERE vendor_email = $1`, vendorEmail,
	).Scan(&revenue.TotalRevenue, &revenue.TicketsSold, &revenue.Payments)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate vendor payments: %w", err)
	}

	err = r.db.QueryRowxContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(quantity), 0)
		FROM tickets
		WHERE vendor_email = $1`, vendorEmail,
	).Scan(&revenue.TicketsListed, &revenue.ListedQuantity)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate vendor tickets: %w", err)
	}

	return revenue, nil
}
