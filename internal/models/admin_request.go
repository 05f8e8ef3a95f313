package models

import (
	"time"

	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// AdminRequestStatus is the decision state of a request for admin rights.
type AdminRequestStatus string

const (
	AdminRequestPending  AdminRequestStatus = "pending"
	AdminRequestApproved AdminRequestStatus = "approved"
	AdminRequestRejected AdminRequestStatus = "rejected"
)

// AdminRequest is a user's pending request for the admin role.
// Token is the secret carried by the e-mailed approval link and never leaves the
// server in JSON. A TTL index on expires_at removes requests nobody acted on.
type AdminRequest struct {
	Base      `bson:",inline"`
	Token     string             `bson:"token" json:"-"`
	UserID    utils.SixID        `bson:"user_id" json:"user_id"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Reason    string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Status    AdminRequestStatus `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
	DecidedAt *time.Time         `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
	DecidedBy *utils.SixID       `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
}
