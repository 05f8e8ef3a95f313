package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// SupportHandler handles support tickets for users and staff.
type SupportHandler struct {
	tickets services.ISupportTicketService
	effects SideEffects
}

func NewSupportHandler(tickets services.ISupportTicketService, effects SideEffects) *SupportHandler {
	return &SupportHandler{tickets: tickets, effects: effects}
}

type TicketRequest struct {
	Subject   string                `json:"subject" binding:"required,notblank,max=200"`
	Message   string                `json:"message" binding:"required,notblank,max=5000"`
	Category  models.TicketCategory `json:"category" binding:"omitempty,oneof=booking payment account technical other"`
	Priority  models.TicketPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	BookingID *utils.SixID          `json:"booking_id"`
}

type TicketMessageRequest struct {
	Message string `json:"message" binding:"required,notblank,max=5000"`
}

type TicketStatusRequest struct {
	Status models.TicketStatus `json:"status" binding:"required,oneof=open in_progress resolved closed"`
}

type TicketListQuery struct {
	Status models.TicketStatus `form:"status" binding:"omitempty,oneof=open in_progress resolved closed"`
}

// Create handles POST /api/support
func (h *SupportHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req TicketRequest
	if !bindJSON(c, &req) {
		return
	}
	ticket, err := h.tickets.Create(c.Request.Context(), actor, services.TicketInput{
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
		Category:  req.Category,
		Priority:  req.Priority,
		BookingID: req.BookingID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// ListMine handles GET /api/support
func (h *SupportHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	result, err := h.tickets.ListForUser(c.Request.Context(), actor.ID, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/support/:id
func (h *SupportHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	ticketID, ok := idParam(c, "id", "ticket")
	if !ok {
		return
	}
	ticket, err := h.tickets.Get(c.Request.Context(), actor, ticketID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// AddMessage handles POST /api/support/:id/messages. Staff replies notify the ticket owner.
func (h *SupportHandler) AddMessage(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	ticketID, ok := idParam(c, "id", "ticket")
	if !ok {
		return
	}
	var req TicketMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	ticket, err := h.tickets.AddMessage(ctx, actor, ticketID, strings.TrimSpace(req.Message))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if actor.IsAdmin() && ticket.UserID != actor.ID {
		h.effects.TicketUpdated(ctx, ticket, models.ActionSupportReply)
	}
	c.JSON(http.StatusOK, ticket)
}

// Close handles PUT /api/support/:id/close
func (h *SupportHandler) Close(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	ticketID, ok := idParam(c, "id", "ticket")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ticket, err := h.tickets.Close(ctx, actor, ticketID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if ticket.UserID != actor.ID {
		h.effects.TicketUpdated(ctx, ticket, models.ActionSupportStatus)
	}
	c.JSON(http.StatusOK, ticket)
}

// List handles GET /api/admin/support
func (h *SupportHandler) List(c *gin.Context) {
	var q TicketListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	result, err := h.tickets.List(c.Request.Context(), q.Status, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateStatus handles PUT /api/admin/support/:id/status
func (h *SupportHandler) UpdateStatus(c *gin.Context) {
	ticketID, ok := idParam(c, "id", "ticket")
	if !ok {
		return
	}
	var req TicketStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	ticket, err := h.tickets.UpdateStatus(ctx, ticketID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.effects.TicketUpdated(ctx, ticket, models.ActionSupportStatus)
	c.JSON(http.StatusOK, ticket)
}
