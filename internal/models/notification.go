package models

import (
	"time"

	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// NotificationType groups notifications by the entity they concern.
type NotificationType string

const (
	NotificationTypeBooking NotificationType = "booking"
	NotificationTypePayment NotificationType = "payment"
	NotificationTypeSupport NotificationType = "support"
	NotificationTypeAdmin   NotificationType = "admin"
	NotificationTypeSystem  NotificationType = "system"
)

// NotificationAction is the change a notification reports.
type NotificationAction string

const (
	ActionBookingCreated        NotificationAction = "created"
	ActionBookingConfirmed      NotificationAction = "confirmed"
	ActionBookingUpdated        NotificationAction = "updated"
	ActionBookingCancelled      NotificationAction = "cancelled"
	ActionBookingCompleted      NotificationAction = "completed"
	ActionBookingPaymentUpdated NotificationAction = "payment_updated"

	ActionPaymentPaid              NotificationAction = "paid"
	ActionPaymentRefunded          NotificationAction = "refunded"
	ActionPaymentPartiallyRefunded NotificationAction = "partially_refunded"
	ActionPaymentInvoiceCreated    NotificationAction = "invoice_created"
	ActionPaymentOverdue           NotificationAction = "overdue"

	ActionSupportReply  NotificationAction = "reply"
	ActionSupportStatus NotificationAction = "status_changed"

	ActionAdminRequested NotificationAction = "admin_requested"
	ActionAdminApproved  NotificationAction = "admin_approved"
	ActionAdminRejected  NotificationAction = "admin_rejected"
)

// Notification is an in-app message for one user.
type Notification struct {
	Base      `bson:",inline"`
	UserID    utils.SixID            `bson:"user_id" json:"user_id"`
	Type      NotificationType       `bson:"type" json:"type"`
	Action    NotificationAction     `bson:"action" json:"action"`
	Title     string                 `bson:"title" json:"title"`
	Message   string                 `bson:"message" json:"message"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool                   `bson:"read" json:"read"`
	ReadAt    *time.Time             `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}
