package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
)

// HTTPError is an error a handler wants reported with a specific status.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError builds an HTTPError without a cause.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// AbortWithError stops the chain and writes an error body.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

type sentinelStatus struct {
	err     error
	status  int
	message string
}

var sentinelStatuses = []sentinelStatus{
	{services.ErrForbidden, http.StatusForbidden, "You are not allowed to perform this action"},
	{services.ErrInvalidTransition, http.StatusConflict, "Status change not allowed"},
	{services.ErrInvalidRefundAmount, http.StatusBadRequest, "Invalid refund amount"},
	{services.ErrRoomUnavailable, http.StatusConflict, "No rooms available for the selected dates"},
	{services.ErrHotelUnavailable, http.StatusConflict, "Hotel is not accepting bookings"},
	{services.ErrOutsideCalendar, http.StatusBadRequest, "Dates are outside the bookable range"},
	{services.ErrEmailExists, http.StatusConflict, "Email already registered"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{services.ErrUserSuspended, http.StatusForbidden, "Account suspended"},
	{services.ErrAlreadyReviewed, http.StatusConflict, "You have already reviewed this hotel"},
	{services.ErrInvalidAmount, http.StatusBadRequest, "Invalid amount"},
	{services.ErrBookingsDisabled, http.StatusServiceUnavailable, "Bookings are temporarily disabled"},
	{services.ErrInvalidRating, http.StatusBadRequest, "Rating must be between 1 and 5"},
	{services.ErrInvalidDates, http.StatusBadRequest, "Check-out must be after check-in"},
	{services.ErrRequestExpired, http.StatusGone, "Admin request expired or already decided"},
	{services.ErrVersionConflict, http.StatusConflict, "Resource was modified concurrently, try again"},
	{services.ErrTemplateNotFound, http.StatusNotFound, "Template not found"},
	{mongo.ErrNoDocuments, http.StatusNotFound, "Resource not found"},
}

// ErrorHandler turns errors attached with c.Error into a JSON response.
// It must be registered before any handler that reports errors this way.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ginErr := c.Errors.Last()
		status, resp := classify(ginErr)
		if status >= http.StatusInternalServerError {
			log.Printf("Error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, ginErr.Err)
		}
		c.JSON(status, resp)
	}
}

func classify(ginErr *gin.Error) (int, ErrorResponse) {
	err := ginErr.Err

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		resp := ErrorResponse{Message: httpErr.Message}
		if httpErr.Err != nil {
			resp.Error = httpErr.Err.Error()
		}
		return httpErr.Status, resp
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Error: describeValidation(validationErrs)}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF) || ginErr.IsType(gin.ErrorTypeBind) {
		return http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Error: err.Error()}
	}

	if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenMalformed) || errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return http.StatusUnauthorized, ErrorResponse{Message: "Invalid or expired token", Error: err.Error()}
	}

	for _, s := range sentinelStatuses {
		if errors.Is(err, s.err) {
			return s.status, ErrorResponse{Message: s.message, Error: err.Error()}
		}
	}

	if db.IsMongoDuplicateKeyError(err) {
		return http.StatusConflict, ErrorResponse{Message: "Resource already exists", Error: "duplicate key"}
	}

	return http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"}
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
