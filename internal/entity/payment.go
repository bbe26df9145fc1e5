package entity

import "time"

const PaymentStatusPaid = "paid"

// Payment is the append-only record of a completed checkout. TransactionID
// is unique and serves as the idempotency key for confirmation.
type Payment struct {
	ID            string    `json:"id" db:"id"`
	Amount        int64     `json:"amount" db:"amount"`
	Currency      string    `json:"currency" db:"currency"`
	CustomerEmail string    `json:"customer_email" db:"customer_email"`
	TicketID      string    `json:"ticket_id" db:"ticket_id"`
	BookingID     string    `json:"booking_id" db:"booking_id"`
	TicketTitle   string    `json:"ticket_title" db:"ticket_title"`
	VendorEmail   string    `json:"vendor_email" db:"vendor_email"`
	Quantity      int       `json:"quantity" db:"quantity"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	TrackingID    string    `json:"tracking_id" db:"tracking_id"`
	Status        string    `json:"status" db:"status"`
	PaidAt        time.Time `json:"paid_at" db:"paid_at"`
}

// CheckoutRequest describes a single line item checkout for a booking.
type CheckoutRequest struct {
	BookingID     string
	TicketID      string
	TicketTitle   string
	UnitAmount    int64
	Quantity      int64
	Currency      string
	CustomerEmail string
}

// CheckoutSession is what the gateway returns when a session is created.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// GatewaySession is a checkout session as resolved after completion.
type GatewaySession struct {
	ID            string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	TransactionID string
	Metadata      map[string]string
}

const (
	MetadataBookingID   = "booking_id"
	MetadataTicketID    = "ticket_id"
	MetadataTicketTitle = "ticket_title"
)

// VendorRevenue aggregates a vendor's sales.
type VendorRevenue struct {
	VendorEmail    string `json:"vendor_email"`
	TotalRevenue   int64  `json:"total_revenue"`
	TicketsSold    int    `json:"tickets_sold"`
	Payments       int    `json:"payments"`
	TicketsListed  int    `json:"tickets_listed"`
	ListedQuantity int    `json:"listed_quantity"`
}
