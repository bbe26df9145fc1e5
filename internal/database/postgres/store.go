package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type postgresStore struct {
	db    *sqlx.DB
	repos *Repositories
}

func NewStore(db *sqlx.DB) Store {
	return &postgresStore{
		db:    db,
		repos: newRepositories(db),
	}
}

func newRepositories(db sqlx.ExtContext) *Repositories {
	return &Repositories{
		Tickets:  NewTicketRepository(db),
		Bookings: NewBookingRepository(db),
		Payments: NewPaymentRepository(db),
		Users:    NewUserRepository(db),
		Vendors:  NewVendorRepository(db),
	}
}

func (s *postgresStore) Repositories() *Repositories {
	return s.repos
}

// WithinTx uses READ COMMITTED: the ledger takes explicit row locks with
// SELECT ... FOR UPDATE, so a serialisable snapshot is not needed.
func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(ctx, newRepositories(tx))
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
