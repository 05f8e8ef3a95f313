package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/api/middleware"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// IdempotencyHeader lets a client retry a payment without charging twice.
const IdempotencyHeader = "Idempotency-Key"

// PaymentHandler handles payments, refunds and invoices.
type PaymentHandler struct {
	payments services.IPaymentService
	effects  SideEffects
}

func NewPaymentHandler(payments services.IPaymentService, effects SideEffects) *PaymentHandler {
	return &PaymentHandler{payments: payments, effects: effects}
}

type ProcessPaymentRequest struct {
	BookingID       utils.SixID `json:"booking_id" binding:"required"`
	PaymentMethod   string      `json:"payment_method" binding:"omitempty,max=50"`
	PaymentMethodID string      `json:"payment_method_id" binding:"required,notblank,max=200"`
	Amount          float64     `json:"amount" binding:"gte=0"`
	Currency        string      `json:"currency" binding:"omitempty,currency"`
}

type RefundRequest struct {
	PaymentID utils.SixID `json:"payment_id" binding:"required"`
	Amount    *float64    `json:"amount" binding:"omitempty,gt=0"`
	Reason    string      `json:"reason" binding:"max=500"`
}

type InvoiceRequest struct {
	UserID    utils.SixID              `json:"user_id" binding:"required"`
	BookingID *utils.SixID             `json:"booking_id"`
	Items     []models.PaymentLineItem `json:"items" binding:"required,min=1,dive"`
	Currency  string                   `json:"currency" binding:"omitempty,currency"`
	TaxRate   *float64                 `json:"tax_rate" binding:"omitempty,gte=0,lte=1"`
	Discount  float64                  `json:"discount" binding:"gte=0"`
	DueDate   string                   `json:"due_date"`
	Notes     string                   `json:"notes" binding:"max=1000"`
}

type PaymentStatusRequest struct {
	Status models.PaymentStatus `json:"status" binding:"required,oneof=pending paid failed voided cancelled"`
}

type PaymentListQuery struct {
	Status    models.PaymentStatus `form:"status" binding:"omitempty,oneof=pending paid failed refunded partially_refunded voided cancelled"`
	UserID    string               `form:"user_id"`
	BookingID string               `form:"booking_id"`
}

// Process handles POST /api/payments/process
func (h *PaymentHandler) Process(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req ProcessPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if len(key) > 200 {
		_ = c.Error(middleware.NewHTTPError(http.StatusBadRequest, IdempotencyHeader+" is too long"))
		return
	}

	ctx := c.Request.Context()
	payment, replayed, err := h.payments.ProcessPayment(ctx, actor, services.ProcessPaymentInput{
		BookingID:       req.BookingID,
		PaymentMethod:   req.PaymentMethod,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		IdempotencyKey:  key,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if replayed {
		c.JSON(http.StatusOK, payment)
		return
	}
	log.Printf("Payment %s (%s) processed for booking %s", payment.ID, payment.InvoiceNumber, req.BookingID)
	h.effects.PaymentChanged(ctx, payment, models.ActionPaymentPaid)

	c.JSON(http.StatusCreated, payment)
}

// Refund handles POST /api/payments/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req RefundRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	payment, err := h.payments.ProcessRefund(ctx, req.PaymentID, req.Amount, strings.TrimSpace(req.Reason), actor.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	log.Printf("Refund on payment %s by admin %s, total refunded %.2f", payment.ID, actor.ID, payment.TotalRefunded)
	h.effects.PaymentChanged(ctx, payment, refundAction(payment))

	c.JSON(http.StatusOK, payment)
}

// CreateInvoice handles POST /api/payments/invoice
func (h *PaymentHandler) CreateInvoice(c *gin.Context) {
	var req InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	in := services.InvoiceInput{
		UserID:    req.UserID,
		BookingID: req.BookingID,
		Items:     req.Items,
		Currency:  req.Currency,
		TaxRate:   req.TaxRate,
		Discount:  req.Discount,
		Notes:     strings.TrimSpace(req.Notes),
	}
	if req.DueDate != "" {
		due, ok := dateField(c, req.DueDate, "due_date")
		if !ok {
			return
		}
		in.DueDate = &due
	}

	ctx := c.Request.Context()
	payment, err := h.payments.CreateInvoice(ctx, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.effects.PaymentChanged(ctx, payment, models.ActionPaymentInvoiceCreated)
	c.JSON(http.StatusCreated, payment)
}

// UpdateStatus handles PUT /api/payments/:id/status
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	paymentID, ok := idParam(c, "id", "payment")
	if !ok {
		return
	}
	var req PaymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	payment, err := h.payments.UpdateStatus(ctx, paymentID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if payment.Status == models.PaymentStatusPaid {
		h.effects.PaymentChanged(ctx, payment, models.ActionPaymentPaid)
	}
	c.JSON(http.StatusOK, payment)
}

// List handles GET /api/payments and GET /api/admin/payments.
// Non-admins only ever see their own payments.
func (h *PaymentHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var q PaymentListQuery
	if !bindQuery(c, &q) {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	filter := services.PaymentFilter{Status: q.Status}
	if filter.BookingID, ok = optionalID(c, q.BookingID, "booking"); !ok {
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

	result, err := h.payments.List(c.Request.Context(), filter, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paymentID, ok := idParam(c, "id", "payment")
	if !ok {
		return
	}
	payment, err := h.payments.GetForActor(c.Request.Context(), actor, paymentID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// Invoice handles GET /api/payments/:id/invoice
func (h *PaymentHandler) Invoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paymentID, ok := idParam(c, "id", "payment")
	if !ok {
		return
	}
	invoice, err := h.payments.GetInvoice(c.Request.Context(), actor, paymentID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// InvoicePDF handles GET /api/payments/:id/invoice-pdf. Only metadata is returned.
func (h *PaymentHandler) InvoicePDF(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paymentID, ok := idParam(c, "id", "payment")
	if !ok {
		return
	}
	meta, err := h.payments.GetInvoicePDFMetadata(c.Request.Context(), actor, paymentID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, meta)
}
