package transport

import (
	"net/http"

	"github.com/ds124wfegd/ticket-marketplace/internal/service"
	"github.com/ds124wfegd/ticket-marketplace/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Booking created successfully", booking)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Booking retrieved successfully", booking)
}

// CancelBooking отменяет бронирование
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID := c.Param("id")

	if err := h.bookingService.CancelBooking(c.Request.Context(), bookingID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Booking cancelled successfully",
		Meta: map[string]interface{}{
			"booking_id": bookingID,
		},
	})
}

func (h *BookingHandler) GetCustomerBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListCustomerBookings(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "Bookings retrieved successfully", bookings)
}

// GetVendorBookings lists bookings made on the calling vendor's tickets.
func (h *BookingHandler) GetVendorBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListVendorBookings(c.Request.Context(), middleware.DecodedEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "Vendor bookings retrieved successfully", bookings)
}
