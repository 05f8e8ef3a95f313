package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// BookingHandler handles the booking lifecycle endpoints.
type BookingHandler struct {
	bookings services.IBookingService
	payments services.IPaymentService
	effects  SideEffects
}

func NewBookingHandler(bookings services.IBookingService, payments services.IPaymentService, effects SideEffects) *BookingHandler {
	return &BookingHandler{bookings: bookings, payments: payments, effects: effects}
}

type HotelSnapshotRequest struct {
	ID       utils.SixID `json:"id"`
	Name     string      `json:"name" binding:"required,notblank,max=200"`
	Location string      `json:"location" binding:"max=200"`
	Image    string      `json:"image" binding:"omitempty,url"`
}

type CreateBookingRequest struct {
	Hotel           HotelSnapshotRequest `json:"hotel"`
	ServiceID       *utils.SixID         `json:"service_id"`
	RoomType        string               `json:"room_type" binding:"required,notblank,max=100"`
	CheckIn         string               `json:"check_in" binding:"required"`
	CheckOut        string               `json:"check_out" binding:"required"`
	Guests          int                  `json:"guests" binding:"required,min=1,max=50"`
	Rooms           int                  `json:"rooms" binding:"omitempty,min=1,max=20"`
	TotalAmount     float64              `json:"total_amount" binding:"gte=0"`
	Currency        string               `json:"currency" binding:"omitempty,currency"`
	SpecialRequests string               `json:"special_requests" binding:"max=1000"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type BookingPaymentStatusRequest struct {
	PaymentStatus models.BookingPaymentStatus `json:"payment_status" binding:"required,oneof=pending paid refunded partially_refunded"`
	Notes         string                      `json:"notes" binding:"max=1000"`
}

type BookingListQuery struct {
	Status        models.BookingStatus        `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	PaymentStatus models.BookingPaymentStatus `form:"payment_status" binding:"omitempty,oneof=pending paid refunded partially_refunded"`
	UserID        string                      `form:"user_id"`
	HotelID       string                      `form:"hotel_id"`
}

// CreateHotelBooking handles POST /api/bookings/hotel
func (h *BookingHandler) CreateHotelBooking(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	checkIn, ok := dateField(c, req.CheckIn, "check_in")
	if !ok {
		return
	}
	checkOut, ok := dateField(c, req.CheckOut, "check_out")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	booking, err := h.bookings.Create(ctx, actor, services.CreateBookingInput{
		Hotel: models.HotelSnapshot{
			ID:       req.Hotel.ID,
			Name:     strings.TrimSpace(req.Hotel.Name),
			Location: strings.TrimSpace(req.Hotel.Location),
			Image:    req.Hotel.Image,
		},
		ServiceID:       req.ServiceID,
		RoomType:        req.RoomType,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		Rooms:           req.Rooms,
		TotalAmount:     req.TotalAmount,
		Currency:        req.Currency,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	log.Printf("Booking %s created by user %s for hotel %q", booking.ID, actor.ID, booking.Hotel.Name)
	h.effects.BookingChanged(ctx, booking, models.ActionBookingCreated)

	c.JSON(http.StatusCreated, booking)
}

// List handles GET /api/bookings and GET /api/admin/bookings.
// Non-admins only ever see their own bookings.
func (h *BookingHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var q BookingListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	filter := services.BookingFilter{Status: q.Status, PaymentStatus: q.PaymentStatus}
	if filter.HotelID, ok = optionalID(c, q.HotelID, "hotel"); !ok {
		return
	}
	if actor.IsAdmin() {
		if filter.UserID, ok = optionalID(c, q.UserID, "user"); !ok {
			return
		}
	} else {
		own := actor.ID
		filter.UserID = &own
	}

	result, err := h.bookings.List(c.Request.Context(), filter, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}
	booking, err := h.bookings.GetForActor(c.Request.Context(), actor, bookingID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Confirm handles PUT /api/bookings/confirm/:id
func (h *BookingHandler) Confirm(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	booking, err := h.bookings.Confirm(ctx, actor, bookingID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.effects.BookingChanged(ctx, booking, models.ActionBookingConfirmed)
	c.JSON(http.StatusOK, booking)
}

// Cancel handles PUT /api/bookings/cancel/:id. Payments are refunded as part of the cancellation.
func (h *BookingHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bookingID, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}
	var req CancelBookingRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	booking, payments, err := h.bookings.Cancel(ctx, actor, bookingID, strings.TrimSpace(req.Reason))
	if err != nil {
		_ = c.Error(err)
		return
	}
	log.Printf("Booking %s cancelled by user %s, %d payment(s) refunded", booking.ID, actor.ID, len(payments))

	h.effects.BookingChanged(ctx, booking, models.ActionBookingCancelled)
	for i := range payments {
		h.effects.PaymentChanged(ctx, &payments[i], refundAction(&payments[i]))
	}

	if payments == nil {
		payments = []models.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking, "payments": payments})
}

// Complete handles PUT /api/bookings/:id/complete
func (h *BookingHandler) Complete(c *gin.Context) {
	bookingID, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	booking, err := h.bookings.Complete(ctx, bookingID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.effects.BookingChanged(ctx, booking, models.ActionBookingCompleted)
	c.JSON(http.StatusOK, booking)
}

// UpdatePaymentStatus handles PUT /api/bookings/:id/payment-status
func (h *BookingHandler) UpdatePaymentStatus(c *gin.Context) {
	bookingID, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}
	var req BookingPaymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	booking, err := h.payments.UpdateBookingPaymentStatus(ctx, bookingID, req.PaymentStatus, strings.TrimSpace(req.Notes))
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.effects.BookingChanged(ctx, booking, models.ActionBookingPaymentUpdated)
	c.JSON(http.StatusOK, booking)
}

func refundAction(p *models.Payment) models.NotificationAction {
	if p.Status == models.PaymentStatusPartiallyRefunded {
		return models.ActionPaymentPartiallyRefunded
	}
	return models.ActionPaymentRefunded
}
