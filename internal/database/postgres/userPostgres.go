package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/jmoiron/sqlx"
)

type userRepository struct {
	db sqlx.ExtContext
}

func NewUserRepository(db sqlx.ExtContext) UserRepository {
	return &userRepository{db: db}
}

// Upsert registers the user on first sign-in. Later calls refresh the
// profile fields and keep role and fraud flag; the stored row is written
// back into user.
func (r *userRepository) Upsert(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, name, photo_url, role, fraud, created_at)
		VALUES (:id, :email, :name, :photo_url, :role, :fraud, :created_at)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, photo_url = EXCLUDED.photo_url
		RETURNING id, email, name, photo_url, role, fraud, created_at`

	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, user)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return fmt.Errorf("failed to upsert user: no row returned")
	}
	if err := rows.StructScan(user); err != nil {
		return fmt.Errorf("failed to scan user: %w", err)
	}
	return rows.Err()
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, email, name, photo_url, role, fraud, created_at
		FROM users
		WHERE email = $1`

	var user entity.User
	err := sqlx.GetContext(ctx, r.db, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetAll(ctx context.Context) ([]*entity.User, error) {
	query := `
		SELECT id, email, name, photo_url, role, fraud, created_at
		FROM users
		ORDER BY created_at DESC`

	var users []*entity.User
	if err := sqlx.SelectContext(ctx, r.db, &users, query); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, email string, role entity.Role) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET role = $1 WHERE email = $2`, role, email)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return expectOneRow(result, entity.ErrUserNotFound)
}

func (r *userRepository) SetFraud(ctx context.Context, email string, fraud bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET fraud = $1 WHERE email = $2`, fraud, email)
	if err != nil {
		return fmt.Errorf("failed to update user fraud flag: %w", err)
	}
	return expectOneRow(result, entity.ErrUserNotFound)
}
