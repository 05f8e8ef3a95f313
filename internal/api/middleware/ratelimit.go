package middleware

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
)

// EndpointLimits looks up per-route overrides of the default bucket.
type EndpointLimits interface {
	GetEndpointRateLimit(ctx context.Context, method, endpoint string) *models.RateLimitConfig
}

// clientLimiter stores the token bucket of one client on one key.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware manages rate limiting for API endpoints.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	cfg     *config.Config
	limits  EndpointLimits
	stop    chan struct{}
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware.
// limits may be nil, in which case every route uses the configured defaults.
func NewRateLimiterMiddleware(cfg *config.Config, limits EndpointLimits) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
		limits:  limits,
		stop:    make(chan struct{}),
	}
	go rm.cleanupClients()
	return rm
}

// Stop ends the cleanup goroutine.
func (rm *RateLimiterMiddleware) Stop() {
	close(rm.stop)
}

// getClientLimiter retrieves or creates the bucket for a key.
func (rm *RateLimiterMiddleware) getClientLimiter(key string, refill, burst int) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cl, exists := rm.clients[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(refill), burst)}
		rm.clients[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl
}

// cleanupClients periodically removes idle entries.
func (rm *RateLimiterMiddleware) cleanupClients() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stop:
			return
		case <-ticker.C:
		}
		rm.mu.Lock()
		count := 0
		for id, client := range rm.clients {
			if time.Since(client.lastSeen) > 30*time.Minute {
				delete(rm.clients, id)
				count++
			}
		}
		rm.mu.Unlock()
		if count > 0 {
			log.Printf("Rate limiter cleanup removed %d old client entries.", count)
		}
	}
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.ClientIP()
		endpoint := c.FullPath()

		refill := rm.cfg.RateLimitRefillRate
		burst := rm.cfg.RateLimitBucketSize

		// Routes with their own limits get a bucket separate from the client's shared one.
		if rm.limits != nil && endpoint != "" {
			if override := rm.limits.GetEndpointRateLimit(c.Request.Context(), c.Request.Method, endpoint); override != nil {
				refill = override.TokenRefillRate
				burst = override.BucketSize
				clientKey += "|" + c.Request.Method + " " + endpoint
			}
		}

		cl := rm.getClientLimiter(clientKey, refill, burst)
		if !cl.limiter.Allow() {
			log.Printf("Rate limit exceeded for client: %s on %s %s", clientKey, c.Request.Method, c.Request.URL.Path)
			c.Header("Retry-After", "1")
			AbortWithError(c, http.StatusTooManyRequests, "Too many requests", nil)
			return
		}

		c.Next()
	}
}
