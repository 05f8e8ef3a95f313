package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/florentincondu/proiect-web-sub000/internal/api/middleware"
	"github.com/florentincondu/proiect-web-sub000/internal/auth"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// SideEffects turns a state change into notifications, e-mails, events and audit entries.
// Implementations never fail the request.
type SideEffects interface {
	BookingChanged(ctx context.Context, b *models.Booking, action models.NotificationAction)
	PaymentChanged(ctx context.Context, p *models.Payment, action models.NotificationAction)
	TicketUpdated(ctx context.Context, t *models.SupportTicket, action models.NotificationAction)
	AdminAccessRequested(ctx context.Context, req *models.AdminRequest)
	AdminAccessDecided(ctx context.Context, req *models.AdminRequest)
}

// IAsynqClient defines the interface for the Asynq client methods used by the handlers.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// MessageResponse is the body of requests that only report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		_ = c.Error(middleware.NewHTTPError(http.StatusUnauthorized, "Authentication required"))
	}
	return actor, ok
}

// checkPassword applies the password length policy and reports the violation as a 400.
func checkPassword(c *gin.Context, password string, minLength int) bool {
	switch err := auth.ValidatePassword(password, minLength); {
	case errors.Is(err, auth.ErrPasswordTooShort):
		_ = c.Error(&middleware.HTTPError{Status: http.StatusBadRequest, Message: fmt.Sprintf("Password must be at least %d characters", minLength), Err: err})
		return false
	case errors.Is(err, auth.ErrPasswordTooLong):
		_ = c.Error(&middleware.HTTPError{Status: http.StatusBadRequest, Message: fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes), Err: err})
		return false
	}
	return true
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	return true
}

// idParam parses a path parameter as a SixID. label names the resource in the error message.
func idParam(c *gin.Context, name, label string) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.Param(name))
	if err != nil {
		_ = c.Error(&middleware.HTTPError{Status: http.StatusBadRequest, Message: fmt.Sprintf("Invalid %s ID", label), Err: err})
		return utils.SixID{}, false
	}
	return id, true
}

func pageQuery(c *gin.Context) (services.Page, bool) {
	var p services.Page
	if !bindQuery(c, &p) {
		return p, false
	}
	return p.Normalize(), true
}

// parseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

func dateField(c *gin.Context, value, field string) (time.Time, bool) {
	t, err := parseDate(value)
	if err != nil {
		_ = c.Error(&middleware.HTTPError{Status: http.StatusBadRequest, Message: "Invalid " + field, Err: err})
		return time.Time{}, false
	}
	return t, true
}

// optionalID parses an ID that may be omitted.
func optionalID(c *gin.Context, value, label string) (*utils.SixID, bool) {
	if strings.TrimSpace(value) == "" {
		return nil, true
	}
	id, err := utils.ParseSixID(value)
	if err != nil {
		_ = c.Error(&middleware.HTTPError{Status: http.StatusBadRequest, Message: fmt.Sprintf("Invalid %s ID", label), Err: err})
		return nil, false
	}
	return &id, true
}
