package transport

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/ds124wfegd/ticket-marketplace/internal/service"
	"github.com/ds124wfegd/ticket-marketplace/pkg/queue"
	"github.com/gin-gonic/gin"
)

// QueueInspector exposes notification queue state to operators.
type QueueInspector interface {
	GetQueueStats(ctx context.Context) (*queue.QueueStats, error)
	DLQ() queue.DLQHandler
}

type AdminHandler struct {
	userService    service.UserService
	vendorService  service.VendorService
	ticketService  service.TicketService
	bookingService service.BookingService
	queue          QueueInspector
}

func NewAdminHandler(
	userService service.UserService,
	vendorService service.VendorService,
	ticketService service.TicketService,
	bookingService service.BookingService,
	queue QueueInspector,
) *AdminHandler {
	return &AdminHandler{
		userService:    userService,
		vendorService:  vendorService,
		ticketService:  ticketService,
		bookingService: bookingService,
		queue:          queue,
	}
}

type UpdateRoleRequest struct {
	Role entity.Role `json:"role" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AdvertiseRequest struct {
	Advertised *bool `json:"advertised" binding:"required"`
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "Users retrieved successfully", users)
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.userService.UpdateRole(c.Request.Context(), c.Param("email"), req.Role); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Role updated successfully", nil)
}

func (h *AdminHandler) MarkFraud(c *gin.Context) {
	if err := h.userService.MarkFraud(c.Request.Context(), c.Param("email")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Vendor marked as fraud", nil)
}

func (h *AdminHandler) ListVendors(c *gin.Context) {
	vendors, err := h.vendorService.List(c.Request.Context(), entity.VendorStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "Vendor applications retrieved successfully", vendors)
}

func (h *AdminHandler) UpdateVendorStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.vendorService.UpdateStatus(c.Request.Context(), c.Param("id"), entity.VendorStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Vendor application updated", nil)
}

func (h *AdminHandler) ListTickets(c *gin.Context) {
	tickets, err := h.ticketService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "Tickets retrieved successfully", tickets)
}

func (h *AdminHandler) UpdateTicketStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.ticketService.UpdateStatus(c.Request.Context(), c.Param("id"), entity.TicketStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ticket status updated", nil)
}

func (h *AdminHandler) SetAdvertised(c *gin.Context) {
	var req AdvertiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.ticketService.SetAdvertised(c.Request.Context(), c.Param("id"), *req.Advertised); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ticket advertisement updated", nil)
}

// DeleteTicket removes any ticket regardless of owner.
func (h *AdminHandler) DeleteTicket(c *gin.Context) {
	if err := h.ticketService.DeleteTicket(c.Request.Context(), "", c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ticket deleted successfully", nil)
}

func (h *AdminHandler) AuditInventory(c *gin.Context) {
	audit, err := h.bookingService.AuditInventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Inventory audit completed", audit)
}

func (h *AdminHandler) QueueStats(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Success: false, Error: "queue is disabled"})
		return
	}

	stats, err := h.queue.GetQueueStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Queue stats retrieved", stats)
}

func (h *AdminHandler) FailedTasks(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Success: false, Error: "queue is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	dlq := h.queue.DLQ()
	if dlq == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Success: false, Error: "dead letter queue is disabled"})
		return
	}

	tasks, err := dlq.GetFailedTasks(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Failed tasks retrieved", tasks)
}

func (h *AdminHandler) RequeueFailedTask(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Success: false, Error: "queue is disabled"})
		return
	}

	dlq := h.queue.DLQ()
	if dlq == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Success: false, Error: "dead letter queue is disabled"})
		return
	}

	if err := dlq.RequeueFailedTask(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, queue.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Task requeued", nil)
}
