package entity

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusApproved TicketStatus = "approved"
	TicketStatusRejected TicketStatus = "rejected"
)

type TransportType string

const (
	TransportBus    TransportType = "bus"
	TransportTrain  TransportType = "train"
	TransportLaunch TransportType = "launch"
	TransportPlane  TransportType = "plane"
)

func (t TransportType) Valid() bool {
	switch t {
	case TransportBus, TransportTrain, TransportLaunch, TransportPlane:
		return true
	}
	return false
}

// Ticket is a listed transport offering. Quantity is the number of seats
// still available and is only changed by the booking ledger once listed.
type Ticket struct {
	ID            string          `json:"id" db:"id"`
	VendorEmail   string          `json:"vendor_email" db:"vendor_email"`
	VendorName    string          `json:"vendor_name" db:"vendor_name"`
	Title         string          `json:"title" db:"title"`
	From          string          `json:"from" db:"from_location"`
	To            string          `json:"to" db:"to_location"`
	TransportType TransportType   `json:"transport_type" db:"transport_type"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Quantity      int             `json:"quantity" db:"quantity"`
	DepartureAt   time.Time       `json:"departure_at" db:"departure_at"`
	Perks         pq.StringArray  `json:"perks" db:"perks"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	Status        TicketStatus    `json:"status" db:"status"`
	Advertised    bool            `json:"advertised" db:"advertised"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// TicketFilter narrows ticket listings. Zero values mean "any".
type TicketFilter struct {
	Status        TicketStatus
	VendorEmail   string
	From          string
	To            string
	TransportType TransportType
	Advertised    *bool
}
