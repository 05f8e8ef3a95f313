package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/api/middleware"
	"github.com/florentincondu/proiect-web-sub000/internal/auth"
	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
)

// AuthHandler handles registration, login and admin access requests.
type AuthHandler struct {
	cfg       *config.Config
	users     services.IUserService
	approvals services.IAdminApprovalService
	effects   SideEffects
}

func NewAuthHandler(cfg *config.Config, users services.IUserService, approvals services.IAdminApprovalService, effects SideEffects) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users, approvals: approvals, effects: effects}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RequestAdminRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) issueToken(c *gin.Context, status int, user *models.User) {
	token, err := auth.GenerateJWT(user.ID, user.Role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: user})
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) || !checkPassword(c, req.Password, h.cfg.PasswordMinLength) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), strings.TrimSpace(req.Name), req.Email, req.Password, strings.TrimSpace(req.Phone))
	if err != nil {
		_ = c.Error(err)
		return
	}
	log.Printf("Registered user %s (%s)", user.ID, user.Email)
	h.issueToken(c, http.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.issueToken(c, http.StatusOK, user)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	user, err := h.users.FindByID(c.Request.Context(), actor.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// RequestAdmin handles POST /api/auth/request-admin
func (h *AuthHandler) RequestAdmin(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if actor.IsAdmin() {
		_ = c.Error(middleware.NewHTTPError(http.StatusConflict, "You are already an administrator"))
		return
	}
	var req RequestAdminRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	adminReq, err := h.approvals.RequestAdminAccess(ctx, actor.ID, strings.TrimSpace(req.Reason))
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.effects.AdminAccessRequested(ctx, adminReq)

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Admin access requested. You will be notified once it is reviewed.",
		"request": adminReq,
	})
}

// AdminVerification handles GET /api/auth/admin-verification/:token?decision=approve|reject,
// the link e-mailed to the approver.
func (h *AuthHandler) AdminVerification(c *gin.Context) {
	token := c.Param("token")
	if !services.IsVerificationToken(token) {
		_ = c.Error(middleware.NewHTTPError(http.StatusBadRequest, "Invalid verification token"))
		return
	}
	var approve bool
	switch c.Query("decision") {
	case "approve":
		approve = true
	case "reject":
		approve = false
	default:
		_ = c.Error(middleware.NewHTTPError(http.StatusBadRequest, "decision must be approve or reject"))
		return
	}

	ctx := c.Request.Context()
	decided, err := h.approvals.DecideByToken(ctx, token, approve)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.effects.AdminAccessDecided(ctx, decided)

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Admin request for %s %s", decided.Email, decided.Status),
		"status":  decided.Status,
	})
}
