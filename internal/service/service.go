package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
)

// BookingService is the inventory reservation ledger. Every change to a
// ticket's available quantity goes through it.
type BookingService interface {
	// Основные операции
	CreateBooking(ctx context.Context, req *CreateBookingRequest) (*entity.Booking, error)
	ConfirmPayment(ctx context.Context, sessionID string) (*entity.PaymentConfirmation, error)
	CancelBooking(ctx context.Context, bookingID string) error

	GetBooking(ctx context.Context, id string) (*entity.Booking, error)
	ListCustomerBookings(ctx context.Context, email string) ([]*entity.Booking, error)
	ListVendorBookings(ctx context.Context, vendorEmail string) ([]*entity.Booking, error)

	// Аудит запасов, только чтение
	AuditInventory(ctx context.Context) (*InventoryAudit, error)
}

type TicketService interface {
	CreateTicket(ctx context.Context, vendorEmail string, req *TicketRequest) (*entity.Ticket, error)
	GetTicket(ctx context.Context, id string) (*entity.Ticket, error)
	ListApproved(ctx context.Context, filter entity.TicketFilter) ([]*entity.Ticket, error)
	ListAdvertised(ctx context.Context) ([]*entity.Ticket, error)
	ListByVendor(ctx context.Context, vendorEmail string) ([]*entity.Ticket, error)
	ListAll(ctx context.Context) ([]*entity.Ticket, error)
	UpdateTicket(ctx context.Context, vendorEmail, id string, req *TicketRequest) (*entity.Ticket, error)
	DeleteTicket(ctx context.Context, vendorEmail, id string) error

	// Модерация
	UpdateStatus(ctx context.Context, id string, status entity.TicketStatus) error
	SetAdvertised(ctx context.Context, id string, advertised bool) error
}

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*entity.CheckoutSession, error)
	ListPayments(ctx context.Context, customerEmail string) ([]*entity.Payment, error)
	VendorRevenue(ctx context.Context, vendorEmail string) (*entity.VendorRevenue, error)
}

type UserService interface {
	UpsertUser(ctx context.Context, req *UpsertUserRequest) (*entity.User, error)
	GetUser(ctx context.Context, email string) (*entity.User, error)
	GetRole(ctx context.Context, email string) (entity.Role, error)
	ListUsers(ctx context.Context) ([]*entity.User, error)
	UpdateRole(ctx context.Context, email string, role entity.Role) error
	// MarkFraud flags the user and rejects every ticket they listed.
	MarkFraud(ctx context.Context, email string) error
}

type VendorService interface {
	Apply(ctx context.Context, email string, req *VendorApplicationRequest) (*entity.Vendor, error)
	List(ctx context.Context, status entity.VendorStatus) ([]*entity.Vendor, error)
	UpdateStatus(ctx context.Context, id string, status entity.VendorStatus) error
}

// PaymentGateway is the hosted checkout provider.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req *entity.CheckoutRequest) (*entity.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*entity.GatewaySession, error)
}

// TaskPublisher интерфейс для публикации задач в очередь
type TaskPublisher interface {
	Publish(ctx context.Context, task *Task) error
}

// Task представляет задачу для очереди
type Task struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	MaxRetries int                    `json:"max_retries"`
}

// Константы типов задач
const (
	TaskTypeBookingPaid      = "booking_paid"
	TaskTypeBookingCancelled = "booking_cancelled"
	TaskTypeInventoryAlert   = "inventory_alert"
)

type CreateBookingRequest struct {
	TicketID      string `json:"ticket_id" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"required"`
	CustomerName  string `json:"customer_name"`
}

type TicketRequest struct {
	Title         string               `json:"title" binding:"required"`
	From          string               `json:"from" binding:"required"`
	To            string               `json:"to" binding:"required"`
	TransportType entity.TransportType `json:"transport_type" binding:"required"`
	Price         string               `json:"price" binding:"required"`
	Quantity      int                  `json:"quantity"`
	DepartureAt   time.Time            `json:"departure_at" binding:"required"`
	Perks         []string             `json:"perks"`
	ImageURL      string               `json:"image_url"`
	VendorName    string               `json:"vendor_name"`
}

type CheckoutSessionRequest struct {
	BookingID     string `json:"booking_id" binding:"required"`
	Cost          string `json:"cost"`
	TicketTitle   string `json:"ticket_title"`
	CustomerEmail string `json:"customer_email" binding:"required"`
}

type UpsertUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

type VendorApplicationRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// InventoryAudit is a read-only report of ledger anomalies.
type InventoryAudit struct {
	NegativeTickets []*entity.Ticket       `json:"negative_tickets"`
	StaleBookings   []*entity.StaleBooking `json:"stale_bookings"`
	CheckedAt       time.Time              `json:"checked_at"`
}
