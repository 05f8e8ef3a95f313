package models

import (
	"time"

	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

type LogLevel string

const (
	LogLevelInfo     LogLevel = "info"
	LogLevelWarning  LogLevel = "warning"
	LogLevelError    LogLevel = "error"
	LogLevelCritical LogLevel = "critical"
)

type LogCategory string

const (
	LogCategoryAuth    LogCategory = "auth"
	LogCategoryBooking LogCategory = "booking"
	LogCategoryPayment LogCategory = "payment"
	LogCategoryAdmin   LogCategory = "admin"
	LogCategorySystem  LogCategory = "system"
	LogCategoryEmail   LogCategory = "email"
	LogCategorySupport LogCategory = "support"
)

// SystemLog is an audit entry. Entries expire after the configured retention.
type SystemLog struct {
	Base      `bson:",inline"`
	Level     LogLevel               `bson:"level" json:"level"`
	Category  LogCategory            `bson:"category" json:"category"`
	Message   string                 `bson:"message" json:"message"`
	UserID    *utils.SixID           `bson:"user_id,omitempty" json:"user_id,omitempty"`
	IP        string                 `bson:"ip,omitempty" json:"ip,omitempty"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}
