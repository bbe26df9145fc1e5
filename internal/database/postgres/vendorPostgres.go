package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const vendorColumns = `id, email, name, phone, address, status, created_at`

// uniqueViolation is the postgres error code for a unique constraint failure.
const uniqueViolation = "23505"

type vendorRepository struct {
	db sqlx.ExtContext
}

func NewVendorRepository(db sqlx.ExtContext) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	query := `
		INSERT INTO vendors (` + vendorColumns + `)
		VALUES (:id, :email, :name, :phone, :address, :status, :created_at)`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, vendor)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: vendor application for %s already exists", entity.ErrConflict, vendor.Email)
		}
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	return nil
}

func (r *vendorRepository) GetByID(ctx context.Context, id string) (*entity.Vendor, error) {
	return r.get(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id)
}

func (r *vendorRepository) GetByEmail(ctx context.Context, email string) (*entity.Vendor, error) {
	return r.get(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE email = $1`, email)
}

func (r *vendorRepository) get(ctx context.Context, query string, arg string) (*entity.Vendor, error) {
	var vendor entity.Vendor
	err := sqlx.GetContext(ctx, r.db, &vendor, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrVendorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return &vendor, nil
}

// List returns vendor applications, optionally narrowed to one status.
func (r *vendorRepository) List(ctx context.Context, status entity.VendorStatus) ([]*entity.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	var vendors []*entity.Vendor
	if err := sqlx.SelectContext(ctx, r.db, &vendors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	return vendors, nil
}

func (r *vendorRepository) UpdateStatus(ctx context.Context, id string, status entity.VendorStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE vendors SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update vendor status: %w", err)
	}
	return expectOneRow(result, entity.ErrVendorNotFound)
}
