package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/services"
)

// NotificationHandler serves the signed-in user's in-app notifications.
type NotificationHandler struct {
	notifications services.INotificationService
}

func NewNotificationHandler(notifications services.INotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type NotificationListQuery struct {
	Unread bool `form:"unread"`
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var q NotificationListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	result, err := h.notifications.ListForUser(c.Request.Context(), actor.ID, q.Unread, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	count, err := h.notifications.CountUnread(c.Request.Context(), actor.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead handles PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	notificationID, ok := idParam(c, "id", "notification")
	if !ok {
		return
	}
	n, err := h.notifications.MarkRead(c.Request.Context(), actor.ID, notificationID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), actor.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Delete handles DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	notificationID, ok := idParam(c, "id", "notification")
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), actor.ID, notificationID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Notification deleted"})
}
