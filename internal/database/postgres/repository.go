package repository

import (
	"context"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.Ticket) error
	GetByID(ctx context.Context, id string) (*entity.Ticket, error)
	List(ctx context.Context, filter entity.TicketFilter) ([]*entity.Ticket, error)
	Update(ctx context.Context, ticket *entity.Ticket) error
	Delete(ctx context.Context, id string) error

	UpdateStatus(ctx context.Context, id string, status entity.TicketStatus) error
	UpdateStatusByVendor(ctx context.Context, vendorEmail string, status entity.TicketStatus) (int64, error)
	SetAdvertised(ctx context.Context, id string, advertised bool) error
	CountAdvertised(ctx context.Context) (int, error)
	// LockAdvertising serialises changes to the advertised set until the
	// surrounding transaction ends. Call it before CountAdvertised.
	LockAdvertising(ctx context.Context) error

	// Locking operations for the booking ledger
	GetForUpdate(ctx context.Context, id string) (*entity.Ticket, error)
	// AdjustQuantity adds delta to the available quantity only if the result
	// stays non-negative and returns the new quantity. It fails with
	// entity.ErrInsufficientInventory when the condition does not hold.
	AdjustQuantity(ctx context.Context, id string, delta int) (int, error)
	FindNegativeQuantity(ctx context.Context) ([]*entity.Ticket, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id string) (*entity.Booking, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Booking, error)
	MarkPaid(ctx context.Context, id, trackingID, transactionID string) error
	// Delete returns the number of removed rows.
	Delete(ctx context.Context, id string) (int64, error)

	GetByCustomer(ctx context.Context, email string) ([]*entity.Booking, error)
	GetByVendor(ctx context.Context, vendorEmail string) ([]*entity.Booking, error)
	GetStalePending(ctx context.Context, before time.Time) ([]*entity.StaleBooking, error)
}

type PaymentRepository interface {
	// Create inserts the payment unless one with the same transaction id
	// already exists; inserted reports which case happened.
	Create(ctx context.Context, payment *entity.Payment) (inserted bool, err error)
	GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error)
	// List returns payments newest first; an empty email returns all of them.
	List(ctx context.Context, customerEmail string) ([]*entity.Payment, error)
	VendorRevenue(ctx context.Context, vendorEmail string) (*entity.VendorRevenue, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, user *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetAll(ctx context.Context) ([]*entity.User, error)
	UpdateRole(ctx context.Context, email string, role entity.Role) error
	SetFraud(ctx context.Context, email string, fraud bool) error
}

type VendorRepository interface {
	Create(ctx context.Context, vendor *entity.Vendor) error
	GetByID(ctx context.Context, id string) (*entity.Vendor, error)
	GetByEmail(ctx context.Context, email string) (*entity.Vendor, error)
	List(ctx context.Context, status entity.VendorStatus) ([]*entity.Vendor, error)
	UpdateStatus(ctx context.Context, id string, status entity.VendorStatus) error
}

// Repositories groups the stores that take part in one unit of work.
type Repositories struct {
	Tickets  TicketRepository
	Bookings BookingRepository
	Payments PaymentRepository
	Users    UserRepository
	Vendors  VendorRepository
}

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

// Store is the process-wide handle to persistence.
type Store interface {
	Transactor
	Repositories() *Repositories
	Ping(ctx context.Context) error
	Close() error
}
