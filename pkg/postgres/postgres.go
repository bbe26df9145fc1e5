package postgres

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/ticket-marketplace/config"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}

func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":   cfg.Host,
		"dbname": cfg.DBName,
	}).Info("Successfully connected to PostgreSQL")
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		fraud BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS vendors (
		id UUID PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(50) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id UUID PRIMARY KEY,
		vendor_email VARCHAR(255) NOT NULL,
		vendor_name VARCHAR(255) NOT NULL DEFAULT '',
		title VARCHAR(255) NOT NULL,
		from_location VARCHAR(255) NOT NULL,
		to_location VARCHAR(255) NOT NULL,
		transport_type VARCHAR(20) NOT NULL,
		price NUMERIC(12, 2) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		departure_at TIMESTAMPTZ NOT NULL,
		perks TEXT[] NOT NULL DEFAULT '{}',
		image_url TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		advertised BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		ticket_id UUID NOT NULL,
		ticket_title VARCHAR(255) NOT NULL,
		vendor_email VARCHAR(255) NOT NULL,
		unit_price NUMERIC(12, 2) NOT NULL,
		customer_email VARCHAR(255) NOT NULL,
		customer_name VARCHAR(255) NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		tracking_id VARCHAR(32) NOT NULL DEFAULT '',
		transaction_id VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		amount BIGINT NOT NULL,
		currency VARCHAR(10) NOT NULL,
		customer_email VARCHAR(255) NOT NULL,
		ticket_id UUID NOT NULL,
		booking_id UUID NOT NULL,
		ticket_title VARCHAR(255) NOT NULL,
		vendor_email VARCHAR(255) NOT NULL,
		quantity INTEGER NOT NULL,
		transaction_id VARCHAR(255) UNIQUE NOT NULL,
		tracking_id VARCHAR(32) NOT NULL,
		status VARCHAR(20) NOT NULL,
		paid_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_tickets_vendor_email ON tickets(vendor_email)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_customer_email ON bookings(customer_email)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_vendor_email ON bookings(vendor_email)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status_created ON bookings(status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_customer_email ON payments(customer_email)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_vendor_email ON payments(vendor_email)`,
}

// RunMigrations creates the schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}
