package models

// RateLimitConfig holds token bucket parameters.
type RateLimitConfig struct {
	BucketSize      int `bson:"bucket_size" json:"bucket_size"`
	TokenRefillRate int `bson:"token_refill_rate" json:"token_refill_rate"` // tokens per second
}

// APIEndpointConfig overrides the default rate limit for one route, keyed by
// method and Gin route pattern (e.g. "POST /api/auth/login").
type APIEndpointConfig struct {
	Base      `bson:",inline"`
	Method    string           `bson:"method" json:"method"`
	Endpoint  string           `bson:"endpoint" json:"endpoint"`
	RateLimit *RateLimitConfig `bson:"rate_limit,omitempty" json:"rate_limit,omitempty"`
}
