package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
)

// AdminHandler serves the dashboard, the system log and admin access requests.
type AdminHandler struct {
	dashboard services.IDashboardService
	logs      services.ISystemLogService
	approvals services.IAdminApprovalService
	effects   SideEffects
}

func NewAdminHandler(dashboard services.IDashboardService, logs services.ISystemLogService, approvals services.IAdminApprovalService, effects SideEffects) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, logs: logs, approvals: approvals, effects: effects}
}

type SystemLogQuery struct {
	Level    models.LogLevel    `form:"level" binding:"omitempty,oneof=info warning error critical"`
	Category models.LogCategory `form:"category" binding:"omitempty,oneof=auth booking payment admin system email support"`
	Since    string             `form:"since"`
}

type AdminRequestQuery struct {
	Status models.AdminRequestStatus `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Logs handles GET /api/admin/logs
func (h *AdminHandler) Logs(c *gin.Context) {
	var q SystemLogQuery
	if !bindQuery(c, &q) {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	filter := services.SystemLogFilter{Level: q.Level, Category: q.Category}
	if q.Since != "" {
		since, ok := dateField(c, q.Since, "since")
		if !ok {
			return
		}
		filter.Since = &since
	}
	result, err := h.logs.List(c.Request.Context(), filter, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdminRequests handles GET /api/admin/admin-requests
func (h *AdminHandler) AdminRequests(c *gin.Context) {
	var q AdminRequestQuery
	if !bindQuery(c, &q) {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	result, err := h.approvals.List(c.Request.Context(), q.Status, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ApproveRequest handles POST /api/admin/admin-requests/:id/approve
func (h *AdminHandler) ApproveRequest(c *gin.Context) {
	h.decide(c, true)
}

// RejectRequest handles POST /api/admin/admin-requests/:id/reject
func (h *AdminHandler) RejectRequest(c *gin.Context) {
	h.decide(c, false)
}

func (h *AdminHandler) decide(c *gin.Context, approve bool) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	requestID, ok := idParam(c, "id", "request")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	decidedBy := actor.ID
	req, err := h.approvals.DecideAdminRequest(ctx, requestID, approve, &decidedBy)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.effects.AdminAccessDecided(ctx, req)
	c.JSON(http.StatusOK, req)
}
