package models

import (
	"time"

	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

type TicketCategory string

const (
	TicketCategoryBooking   TicketCategory = "booking"
	TicketCategoryPayment   TicketCategory = "payment"
	TicketCategoryAccount   TicketCategory = "account"
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryOther     TicketCategory = "other"
)

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketMessage is one entry of a ticket conversation.
type TicketMessage struct {
	SenderID  utils.SixID `bson:"sender_id" json:"sender_id"`
	FromAdmin bool        `bson:"from_admin" json:"from_admin"`
	Body      string      `bson:"body" json:"body"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// SupportTicket is a user's support conversation with staff.
type SupportTicket struct {
	Base      `bson:",inline"`
	UserID    utils.SixID     `bson:"user_id" json:"user_id"`
	Subject   string          `bson:"subject" json:"subject"`
	Category  TicketCategory  `bson:"category" json:"category"`
	Priority  TicketPriority  `bson:"priority" json:"priority"`
	Status    TicketStatus    `bson:"status" json:"status"`
	BookingID *utils.SixID    `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	Messages  []TicketMessage `bson:"messages" json:"messages"`
	ClosedAt  *time.Time      `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at" json:"updated_at"`
}
