package transport

import (
	"net/http"

	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/ds124wfegd/ticket-marketplace/internal/service"
	"github.com/ds124wfegd/ticket-marketplace/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	ticketService service.TicketService
}

func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// ListTickets is the public catalogue of approved tickets.
func (h *TicketHandler) ListTickets(c *gin.Context) {
	filter := entity.TicketFilter{
		From:          c.Query("from"),
		To:            c.Query("to"),
		TransportType: entity.TransportType(c.Query("transport_type")),
	}

	tickets, err := h.ticketService.ListApproved(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "Tickets retrieved successfully", tickets)
}

func (h *TicketHandler) ListAdvertised(c *gin.Context) {
	tickets, err := h.ticketService.ListAdvertised(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "Advertised tickets retrieved successfully", tickets)
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticket, err := h.ticketService.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ticket retrieved successfully", ticket)
}

func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req service.TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ticket, err := h.ticketService.CreateTicket(c.Request.Context(), middleware.DecodedEmail(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Ticket created successfully", ticket)
}

func (h *TicketHandler) ListMyTickets(c *gin.Context) {
	tickets, err := h.ticketService.ListByVendor(c.Request.Context(), middleware.DecodedEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, "Tickets retrieved successfully", tickets)
}

func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	var req service.TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ticket, err := h.ticketService.UpdateTicket(c.Request.Context(), middleware.DecodedEmail(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ticket updated successfully", ticket)
}

func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	if err := h.ticketService.DeleteTicket(c.Request.Context(), middleware.DecodedEmail(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ticket deleted successfully", nil)
}
