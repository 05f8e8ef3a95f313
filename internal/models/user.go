package models

import (
	"time"
)

// Role is the access level of a user account.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
	RoleHost   Role = "host"
	RoleGuest  Role = "guest"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAdmin, RoleHost, RoleGuest:
		return true
	}
	return false
}

// NotificationPreferences controls which e-mails a user receives.
// In-app notifications are always created.
type NotificationPreferences struct {
	Email   bool `bson:"email" json:"email"`
	Booking bool `bson:"booking" json:"booking"`
	Payment bool `bson:"payment" json:"payment"`
	Support bool `bson:"support" json:"support"`
}

// DefaultNotificationPreferences enables every e-mail category.
func DefaultNotificationPreferences() *NotificationPreferences {
	return &NotificationPreferences{Email: true, Booking: true, Payment: true, Support: true}
}

// User represents a platform account.
type User struct {
	Base                    `bson:",inline"`
	Name                    string                   `bson:"name" json:"name"`
	Email                   string                   `bson:"email" json:"email"`
	Phone                   string                   `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash            string                   `bson:"password" json:"-"`
	Role                    Role                     `bson:"role" json:"role"`
	Suspended               bool                     `bson:"suspended" json:"suspended"`
	AdminRequested          bool                     `bson:"admin_requested" json:"admin_requested"`
	NotificationPreferences *NotificationPreferences `bson:"notification_preferences,omitempty" json:"notification_preferences,omitempty"`
	LastLoginAt             *time.Time               `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	Deleted                 bool                     `bson:"deleted" json:"-"`
	CreatedAt               time.Time                `bson:"created_at" json:"created_at"`
	UpdatedAt               time.Time                `bson:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// WantsEmail reports whether the user accepts e-mail for the given notification type.
func (u *User) WantsEmail(t NotificationType) bool {
	p := u.NotificationPreferences
	if p == nil {
		return true
	}
	if !p.Email {
		return false
	}
	switch t {
	case NotificationTypeBooking:
		return p.Booking
	case NotificationTypePayment:
		return p.Payment
	case NotificationTypeSupport:
		return p.Support
	}
	return true
}
