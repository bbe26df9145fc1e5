package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/ds124wfegd/ticket-marketplace/internal/transport/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Tickets  *TicketHandler
	Bookings *BookingHandler
	Payments *PaymentHandler
	Users    *UserHandler
	Admin    *AdminHandler
}

type RouterConfig struct {
	Verifier       middleware.IdentityVerifier
	Roles          middleware.RoleResolver
	Health         Pinger
	RequestTimeout time.Duration
	AllowedOrigins []string
}

func InitRoutes(h *Handlers, cfg RouterConfig) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins...))
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	auth := middleware.VerifyToken(cfg.Verifier)
	vendorOnly := middleware.RequireRole(cfg.Roles, entity.RoleVendor)
	adminOnly := middleware.RequireRole(cfg.Roles, entity.RoleAdmin)

	// API routes
	api := router.Group("/api/v1")
	{
		// Ticket routes
		tickets := api.Group("/tickets")
		{
			tickets.GET("", h.Tickets.ListTickets)
			tickets.GET("/advertised", h.Tickets.ListAdvertised)
			tickets.GET("/:id", h.Tickets.GetTicket)
			tickets.POST("", auth, vendorOnly, h.Tickets.CreateTicket)
			tickets.PATCH("/:id", auth, vendorOnly, h.Tickets.UpdateTicket)
			tickets.DELETE("/:id", auth, vendorOnly, h.Tickets.DeleteTicket)
		}
		api.GET("/my-tickets", auth, vendorOnly, h.Tickets.ListMyTickets)

		// Booking routes
		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.Bookings.CreateBooking)
			bookings.GET("/:id", h.Bookings.GetBooking)
			bookings.DELETE("/:id", h.Bookings.CancelBooking)
		}
		api.GET("/my-bookings", h.Bookings.GetCustomerBookings)

		// Vendor dashboard
		vendor := api.Group("/vendor", auth, vendorOnly)
		{
			vendor.GET("/bookings", h.Bookings.GetVendorBookings)
			vendor.GET("/revenue", h.Payments.VendorRevenue)
		}

		// Payment routes
		api.POST("/create-checkout-session", h.Payments.CreateCheckoutSession)
		api.PATCH("/payment-success", h.Payments.ConfirmPayment)
		api.GET("/payments", auth, h.Payments.ListPayments)

		// User routes
		users := api.Group("/users")
		{
			users.POST("", h.Users.UpsertUser)
			users.GET("/:email/role", h.Users.GetRole)
		}
		api.POST("/vendors", auth, h.Users.ApplyVendor)

		// Admin routes
		admin := api.Group("/admin", auth, adminOnly)
		{
			admin.GET("/users", h.Admin.ListUsers)
			admin.PATCH("/users/:email/role", h.Admin.UpdateUserRole)
			admin.PATCH("/users/:email/fraud", h.Admin.MarkFraud)

			admin.GET("/vendors", h.Admin.ListVendors)
			admin.PATCH("/vendors/:id/status", h.Admin.UpdateVendorStatus)

			admin.GET("/tickets", h.Admin.ListTickets)
			admin.PATCH("/tickets/:id/status", h.Admin.UpdateTicketStatus)
			admin.PATCH("/tickets/:id/advertise", h.Admin.SetAdvertised)
			admin.DELETE("/tickets/:id", h.Admin.DeleteTicket)

			admin.GET("/inventory/audit", h.Admin.AuditInventory)

			admin.GET("/queue/stats", h.Admin.QueueStats)
			admin.GET("/queue/dlq", h.Admin.FailedTasks)
			admin.POST("/queue/dlq/:id/requeue", h.Admin.RequeueFailedTask)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	return router
}
