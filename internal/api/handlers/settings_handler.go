package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/api/middleware"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
)

var settingKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]{0,99}$`)

// SettingsHandler handles the runtime settings store.
type SettingsHandler struct {
	settings services.ISettingsService
}

func NewSettingsHandler(settings services.ISettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

type SetSettingRequest struct {
	Value  interface{} `json:"value" binding:"required"`
	Public bool        `json:"public"`
}

// Public returns the publicly readable settings.
// Handles GET /api/settings/public
func (h *SettingsHandler) Public(c *gin.Context) {
	public, err := h.settings.GetAllPublic(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, public)
}

// List handles GET /api/admin/settings
func (h *SettingsHandler) List(c *gin.Context) {
	all, err := h.settings.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, all)
}

// Set handles PUT /api/admin/settings/:key
func (h *SettingsHandler) Set(c *gin.Context) {
	key := c.Param("key")
	if !settingKeyPattern.MatchString(key) {
		_ = c.Error(middleware.NewHTTPError(http.StatusBadRequest, "Invalid setting key"))
		return
	}
	var req SetSettingRequest
	if !bindJSON(c, &req) {
		return
	}
	setting, err := h.settings.Set(c.Request.Context(), key, req.Value, req.Public)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, setting)
}
