package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending BookingStatus = "pending"
	BookingStatusPaid    BookingStatus = "paid"
)

// Booking is a customer's reservation against a ticket. A pending booking
// does not hold inventory; the ticket quantity is decremented when the
// booking is paid and restored when a paid booking is cancelled.
type Booking struct {
	ID            string          `json:"id" db:"id"`
	TicketID      string          `json:"ticket_id" db:"ticket_id"`
	TicketTitle   string          `json:"ticket_title" db:"ticket_title"`
	VendorEmail   string          `json:"vendor_email" db:"vendor_email"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	CustomerEmail string          `json:"customer_email" db:"customer_email"`
	CustomerName  string          `json:"customer_name" db:"customer_name"`
	Quantity      int             `json:"quantity" db:"quantity"`
	Status        BookingStatus   `json:"status" db:"status"`
	TrackingID    string          `json:"tracking_id,omitempty" db:"tracking_id"`
	TransactionID string          `json:"transaction_id,omitempty" db:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// TotalPrice is the unit price times the booked quantity.
func (b *Booking) TotalPrice() decimal.Decimal {
	return b.UnitPrice.Mul(decimal.NewFromInt(int64(b.Quantity)))
}

// PaymentConfirmation is the outcome of confirming a checkout session.
type PaymentConfirmation struct {
	BookingID        string `json:"booking_id"`
	TrackingID       string `json:"tracking_id"`
	TransactionID    string `json:"transaction_id"`
	UpdatedQuantity  *int   `json:"updated_quantity,omitempty"`
	AlreadyProcessed bool   `json:"already_processed"`
}

// StaleBooking is a pending booking older than the configured threshold.
type StaleBooking struct {
	BookingID     string    `json:"booking_id" db:"id"`
	TicketID      string    `json:"ticket_id" db:"ticket_id"`
	CustomerEmail string    `json:"customer_email" db:"customer_email"`
	Quantity      int       `json:"quantity" db:"quantity"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
