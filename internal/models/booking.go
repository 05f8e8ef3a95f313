package models

import (
	"time"

	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// BookingStatus is the reservation lifecycle state.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// bookingTransitions lists, per target status, the statuses it may be entered from.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusConfirmed: {BookingStatusPending},
	BookingStatusCancelled: {BookingStatusPending, BookingStatusConfirmed},
	BookingStatusCompleted: {BookingStatusConfirmed},
}

// BookingSourceStatuses returns the statuses from which a booking may move to target.
func BookingSourceStatuses(target BookingStatus) []BookingStatus {
	return bookingTransitions[target]
}

// CanTransition reports whether a booking may move from one status to another.
func (from BookingStatus) CanTransition(to BookingStatus) bool {
	for _, s := range bookingTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// BookingPaymentStatus is the payment state mirrored on a booking.
type BookingPaymentStatus string

const (
	BookingPaymentPending           BookingPaymentStatus = "pending"
	BookingPaymentPaid              BookingPaymentStatus = "paid"
	BookingPaymentRefunded          BookingPaymentStatus = "refunded"
	BookingPaymentPartiallyRefunded BookingPaymentStatus = "partially_refunded"
)

// Valid reports whether s is a declared booking payment status.
func (s BookingPaymentStatus) Valid() bool {
	switch s {
	case BookingPaymentPending, BookingPaymentPaid, BookingPaymentRefunded, BookingPaymentPartiallyRefunded:
		return true
	}
	return false
}

// HotelSnapshot is the hotel as it looked when the booking was made.
// It is not kept in sync with the hotel document.
type HotelSnapshot struct {
	ID       utils.SixID `bson:"id,omitempty" json:"id,omitempty"`
	Name     string      `bson:"name" json:"name"`
	Location string      `bson:"location" json:"location"`
	Image    string      `bson:"image,omitempty" json:"image,omitempty"`
}

// Booking is a reservation of a room type for a date range. RefundPending stays set
// on a cancelled booking until its payments are settled.
type Booking struct {
	Base               `bson:",inline"`
	UserID             utils.SixID          `bson:"user_id" json:"user_id"`
	ServiceID          *utils.SixID         `bson:"service_id,omitempty" json:"service_id,omitempty"`
	Hotel              HotelSnapshot        `bson:"hotel" json:"hotel"`
	RoomType           string               `bson:"room_type" json:"room_type"`
	Rooms              int                  `bson:"rooms" json:"rooms"`
	CheckIn            time.Time            `bson:"check_in" json:"check_in"`
	CheckOut           time.Time            `bson:"check_out" json:"check_out"`
	Guests             int                  `bson:"guests" json:"guests"`
	TotalAmount        float64              `bson:"total_amount" json:"total_amount"`
	Currency           string               `bson:"currency" json:"currency"`
	Status             BookingStatus        `bson:"status" json:"status"`
	PaymentStatus      BookingPaymentStatus `bson:"payment_status" json:"payment_status"`
	SpecialRequests    string               `bson:"special_requests,omitempty" json:"special_requests,omitempty"`
	PaymentNotes       string               `bson:"payment_notes,omitempty" json:"payment_notes,omitempty"`
	InventoryHeld      bool                 `bson:"inventory_held" json:"inventory_held"`
	ConfirmationDate   *time.Time           `bson:"confirmation_date,omitempty" json:"confirmation_date,omitempty"`
	CancellationDate   *time.Time           `bson:"cancellation_date,omitempty" json:"cancellation_date,omitempty"`
	CancellationReason string               `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	RefundPending      bool                 `bson:"refund_pending,omitempty" json:"refund_pending,omitempty"`
	RefundClaimedAt    *time.Time           `bson:"refund_claimed_at,omitempty" json:"-"`
	CompletedAt        *time.Time           `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt          time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time            `bson:"updated_at" json:"updated_at"`
}

// Nights returns the number of nights booked.
func (b *Booking) Nights() int {
	return len(StayNights(b.CheckIn, b.CheckOut))
}
