package transport

import (
	"net/http"
	"strings"

	"github.com/ds124wfegd/ticket-marketplace/internal/service"
	"github.com/ds124wfegd/ticket-marketplace/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	bookingService service.BookingService
}

func NewPaymentHandler(paymentService service.PaymentService, bookingService service.BookingService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		bookingService: bookingService,
	}
}

func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req service.CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.paymentService.CreateCheckoutSession(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Checkout session created", session)
}

// ConfirmPayment is called by the client after the checkout redirect.
// Repeated calls with the same session are answered from the payment record.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	confirmation, err := h.bookingService.ConfirmPayment(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Payment confirmed"
	if confirmation.AlreadyProcessed {
		message = "Payment already processed"
	}
	respond(c, http.StatusOK, message, confirmation)
}

// ListPayments returns the caller's own payment history.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	decoded := middleware.DecodedEmail(c)
	if email == "" {
		email = decoded
	}
	if email != decoded {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Success: false,
			Error:   "forbidden access",
		})
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "Payments retrieved successfully", payments)
}

func (h *PaymentHandler) VendorRevenue(c *gin.Context) {
	revenue, err := h.paymentService.VendorRevenue(c.Request.Context(), middleware.DecodedEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Revenue retrieved successfully", revenue)
}
