package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort            string
	ServiceApiPort     string
	PublicBaseURL      string
	CorsAllowedOrigins []string

	// Booking & billing
	DefaultCurrency         string
	TaxRate                 float64
	InvoiceDueDays          int
	AvailabilityHorizonDays int
	AutoCompleteInterval    time.Duration

	// Admin approval
	AdminApprovalEmail string
	AdminRequestTTL    time.Duration

	// Email
	SmtpHost             string
	SmtpPort             int
	SmtpUsername         string
	SmtpPassword         string
	SmtpFromAddress      string
	FallbackSmtpHost     string
	FallbackSmtpPort     int
	FallbackSmtpUsername string
	FallbackSmtpPassword string
	CriticalEmailLogPath string

	// NATS (optional)
	NatsURL string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	ImageBaseS3URL     string
	ImageMaxDimension  int
	ImageMaxSizeMB     int

	// App Defaults
	AppName            string
	PasswordMinLength  int
	GetCacheTTL        time.Duration
	SystemLogRetention time.Duration

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Missing .env is fine, the environment may be set by the container.
	_ = godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getSeconds := func(key, defaultValue string) (time.Duration, error) {
		n, err := strconv.ParseInt(getEnv(key, defaultValue), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return time.Duration(n) * time.Second, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "hotel_booking")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "5000")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:5000"), "/")
	cfg.CorsAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"))
	cfg.DefaultCurrency = strings.ToUpper(getEnv("DEFAULT_CURRENCY", "RON"))
	cfg.AdminApprovalEmail = getEnv("ADMIN_APPROVAL_EMAIL", "")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@hotels.example.com")
	cfg.FallbackSmtpHost = getEnv("FALLBACK_SMTP_HOST", "")
	cfg.FallbackSmtpUsername = getEnv("FALLBACK_SMTP_USERNAME", "")
	cfg.FallbackSmtpPassword = getEnv("FALLBACK_SMTP_PASSWORD", "")
	cfg.CriticalEmailLogPath = getEnv("CRITICAL_EMAIL_LOG_PATH", "critical_emails.log")
	cfg.NatsURL = getEnv("NATS_URL", "")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.ImageBaseS3URL = getEnv("IMAGE_BASE_S3_URL", "")
	cfg.AppName = getEnv("APP_NAME", "Hotel Booking")

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	if cfg.JwtTTL, err = getSeconds("JWT_TTL_SECONDS", "86400"); err != nil {
		return nil, err
	}

	cfg.TaxRate, err = strconv.ParseFloat(getEnv("TAX_RATE", "0.19"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	if cfg.TaxRate < 0 || cfg.TaxRate > 1 {
		return nil, fmt.Errorf("invalid TAX_RATE: %v is outside [0, 1]", cfg.TaxRate)
	}

	cfg.InvoiceDueDays, err = strconv.Atoi(getEnv("INVOICE_DUE_DAYS", "14"))
	if err != nil {
		return nil, fmt.Errorf("invalid INVOICE_DUE_DAYS: %w", err)
	}

	cfg.AvailabilityHorizonDays, err = strconv.Atoi(getEnv("AVAILABILITY_HORIZON_DAYS", "90"))
	if err != nil {
		return nil, fmt.Errorf("invalid AVAILABILITY_HORIZON_DAYS: %w", err)
	}
	if cfg.AvailabilityHorizonDays < 1 {
		return nil, fmt.Errorf("invalid AVAILABILITY_HORIZON_DAYS: must be positive")
	}

	if cfg.AutoCompleteInterval, err = getSeconds("AUTO_COMPLETE_INTERVAL_SECONDS", "3600"); err != nil {
		return nil, err
	}

	adminRequestTTLHours, err := strconv.ParseInt(getEnv("ADMIN_REQUEST_TTL_HOURS", "48"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_REQUEST_TTL_HOURS: %w", err)
	}
	cfg.AdminRequestTTL = time.Duration(adminRequestTTLHours) * time.Hour

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.FallbackSmtpPort, err = strconv.Atoi(getEnv("FALLBACK_SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid FALLBACK_SMTP_PORT: %w", err)
	}

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "2048"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	cfg.ImageMaxSizeMB, err = strconv.Atoi(getEnv("IMAGE_MAX_SIZE_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_SIZE_MB: %w", err)
	}

	cfg.PasswordMinLength, err = strconv.Atoi(getEnv("PASSWORD_MIN_LENGTH", "6"))
	if err != nil {
		return nil, fmt.Errorf("invalid PASSWORD_MIN_LENGTH: %w", err)
	}

	if cfg.GetCacheTTL, err = getSeconds("GET_CACHE_TTL_SECONDS", "60"); err != nil {
		return nil, err
	}

	retentionDays, err := strconv.ParseInt(getEnv("SYSTEM_LOG_RETENTION_DAYS", "90"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SYSTEM_LOG_RETENTION_DAYS: %w", err)
	}
	cfg.SystemLogRetention = time.Duration(retentionDays) * 24 * time.Hour

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
