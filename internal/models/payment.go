package models

import (
	"math"
	"time"

	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// PaymentStatus is the state of an invoice-like payment record.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusVoided            PaymentStatus = "voided"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
)

// paymentTransitions are the manual status changes an admin may apply.
// Moves into refunded and partially_refunded only happen through refunds.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusVoided},
	PaymentStatusFailed:  {PaymentStatusPending, PaymentStatusCancelled},
}

// CanTransition reports whether an admin may move a payment from one status to another.
func (from PaymentStatus) CanTransition(to PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Refundable reports whether refunds may be applied in this status.
func (s PaymentStatus) Refundable() bool {
	return s == PaymentStatusPaid || s == PaymentStatusPartiallyRefunded
}

// RefundStatus is the state of one refund entry.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusFailed    RefundStatus = "failed"
)

// PaymentLineItem is one billed line.
type PaymentLineItem struct {
	Description string  `bson:"description" json:"description" binding:"required"`
	Quantity    int     `bson:"quantity" json:"quantity" binding:"required,min=1"`
	UnitPrice   float64 `bson:"unit_price" json:"unit_price" binding:"gte=0"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// Refund is a single refund applied to a payment.
type Refund struct {
	ID            utils.SixID  `bson:"id" json:"id"`
	Amount        float64      `bson:"amount" json:"amount"`
	Reason        string       `bson:"reason,omitempty" json:"reason,omitempty"`
	Status        RefundStatus `bson:"status" json:"status"`
	TransactionID string       `bson:"transaction_id" json:"transaction_id"`
	ProcessedBy   *utils.SixID `bson:"processed_by,omitempty" json:"processed_by,omitempty"`
	CreatedAt     time.Time    `bson:"created_at" json:"created_at"`
}

// Payment is an invoice plus its collection and refund history.
type Payment struct {
	Base            `bson:",inline"`
	UserID          utils.SixID       `bson:"user_id" json:"user_id"`
	BookingID       *utils.SixID      `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	InvoiceNumber   string            `bson:"invoice_number" json:"invoice_number"`
	Items           []PaymentLineItem `bson:"items" json:"items"`
	Currency        string            `bson:"currency" json:"currency"`
	Subtotal        float64           `bson:"subtotal" json:"subtotal"`
	TaxRate         float64           `bson:"tax_rate" json:"tax_rate"`
	Tax             float64           `bson:"tax" json:"tax"`
	Discount        float64           `bson:"discount" json:"discount"`
	Total           float64           `bson:"total" json:"total"`
	Status          PaymentStatus     `bson:"status" json:"status"`
	PaymentMethod   string            `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	PaymentMethodID string            `bson:"payment_method_id,omitempty" json:"payment_method_id,omitempty"`
	TransactionID   string            `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	IdempotencyKey  string            `bson:"idempotency_key,omitempty" json:"-"`
	Refunds         []Refund          `bson:"refunds" json:"refunds"`
	TotalRefunded   float64           `bson:"total_refunded" json:"total_refunded"`
	Notes           string            `bson:"notes,omitempty" json:"notes,omitempty"`
	DueDate         *time.Time        `bson:"due_date,omitempty" json:"due_date,omitempty"`
	PaidAt          *time.Time        `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	OverdueNotified bool              `bson:"overdue_notified" json:"overdue_notified"`
	Version         int64             `bson:"version" json:"-"`
	CreatedAt       time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at" json:"updated_at"`
}

// RoundMoney rounds to 2 decimal places.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals fills line amounts, subtotal, tax and total from items, tax rate and discount.
// The total never goes below zero.
func (p *Payment) ComputeTotals() {
	subtotal := 0.0
	for i := range p.Items {
		p.Items[i].Amount = RoundMoney(float64(p.Items[i].Quantity) * p.Items[i].UnitPrice)
		subtotal += p.Items[i].Amount
	}
	p.Subtotal = RoundMoney(subtotal)
	p.Tax = RoundMoney(p.Subtotal * p.TaxRate)
	p.Total = RoundMoney(p.Subtotal + p.Tax - p.Discount)
	if p.Total < 0 {
		p.Total = 0
	}
}

// CompletedRefundTotal sums the refunds that actually moved money.
func (p *Payment) CompletedRefundTotal() float64 {
	sum := 0.0
	for _, r := range p.Refunds {
		if r.Status == RefundStatusCompleted {
			sum += r.Amount
		}
	}
	return RoundMoney(sum)
}

// RefundableAmount is what can still be refunded.
func (p *Payment) RefundableAmount() float64 {
	left := RoundMoney(p.Total - p.CompletedRefundTotal())
	if left < 0 {
		return 0
	}
	return left
}

// StatusAfterRefunds derives the status from completed refunds: refunded when the
// total is fully returned, partially_refunded when anything was returned, otherwise
// the current status.
func (p *Payment) StatusAfterRefunds() PaymentStatus {
	refunded := p.CompletedRefundTotal()
	switch {
	case refunded <= 0:
		return p.Status
	case refunded >= p.Total:
		return PaymentStatusRefunded
	default:
		return PaymentStatusPartiallyRefunded
	}
}

// BookingPaymentStatus maps the payment state onto the booking's payment status.
func (s PaymentStatus) BookingPaymentStatus() BookingPaymentStatus {
	switch s {
	case PaymentStatusPaid:
		return BookingPaymentPaid
	case PaymentStatusRefunded:
		return BookingPaymentRefunded
	case PaymentStatusPartiallyRefunded:
		return BookingPaymentPartiallyRefunded
	}
	return BookingPaymentPending
}
