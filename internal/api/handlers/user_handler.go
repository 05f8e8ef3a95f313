package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/api/middleware"
	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
)

// UserHandler handles profile updates and the admin user list.
type UserHandler struct {
	cfg   *config.Config
	users services.IUserService
}

func NewUserHandler(cfg *config.Config, users services.IUserService) *UserHandler {
	return &UserHandler{cfg: cfg, users: users}
}

type UpdateProfileRequest struct {
	Name                    *string                         `json:"name" binding:"omitempty,notblank,max=100"`
	Phone                   *string                         `json:"phone" binding:"omitempty,max=30"`
	NotificationPreferences *models.NotificationPreferences `json:"notification_preferences"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type SetRoleRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=client admin host guest"`
}

type UserListQuery struct {
	Role      models.Role `form:"role" binding:"omitempty,oneof=client admin host guest"`
	Suspended *bool       `form:"suspended"`
	Search    string      `form:"search" binding:"max=100"`
}

// UpdateMe handles PUT /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	upd := services.ProfileUpdate{Phone: req.Phone, NotificationPreferences: req.NotificationPreferences}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		upd.Name = &name
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), actor.ID, upd)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword handles PUT /api/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkPassword(c, req.NewPassword, h.cfg.PasswordMinLength) {
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated"})
}

// List handles GET /api/admin/users
func (h *UserHandler) List(c *gin.Context) {
	var q UserListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	result, err := h.users.List(c.Request.Context(), services.UserFilter{Role: q.Role, Suspended: q.Suspended, Search: strings.TrimSpace(q.Search)}, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SetRole handles PUT /api/admin/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	userID, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	var req SetRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	if userID == actor.ID && req.Role != models.RoleAdmin {
		_ = c.Error(middleware.NewHTTPError(http.StatusBadRequest, "You cannot remove your own admin role"))
		return
	}
	user, err := h.users.SetRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Suspend handles PUT /api/admin/users/:id/suspend
func (h *UserHandler) Suspend(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	userID, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	user, err := h.users.SuspendUser(c.Request.Context(), userID, actor.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Unsuspend handles PUT /api/admin/users/:id/unsuspend
func (h *UserHandler) Unsuspend(c *gin.Context) {
	userID, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	user, err := h.users.UnsuspendUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}
