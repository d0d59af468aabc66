// ratelimit.go provides Gin middleware that enforces per-client token-bucket
// rate limits. The auth endpoints run a much stricter profile than the rest of
// the API because login and registration are the brute-force targets.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained request rate allowed per client
	RequestsPerMinute int
	// BurstSize is the bucket capacity, i.e. the largest instantaneous burst
	BurstSize int
	// CleanupInterval is how often idle client buckets are evicted
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns the profile for authenticated admin traffic.
// The console dashboard fires several requests per page load, so the burst is
// generous.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 200,
		BurstSize:         50,
		CleanupInterval:   5 * time.Minute,
	}
}

// AuthRateLimitConfig returns the strict profile for login, registration, and
// email verification.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
	}
}

// bucket is the token-bucket state for one client key.
type bucket struct {
	tokens   float64
	refilled time.Time
}

// refill credits tokens accrued since the last refill, capped at capacity.
func (b *bucket) refill(now time.Time, perMinute, capacity int) {
	elapsed := now.Sub(b.refilled).Seconds()
	b.tokens = min(float64(capacity), b.tokens+elapsed*float64(perMinute)/60.0)
	b.refilled = now
}

// RateLimiter tracks a token bucket per client key. Keys are user IDs for
// authenticated requests and client IPs otherwise, so one misbehaving staff
// session cannot exhaust the budget of everyone behind the same NAT.
type RateLimiter struct {
	config  RateLimitConfig
	buckets map[string]*bucket
	mu      sync.RWMutex
	stopCh  chan struct{}
}

// NewRateLimiter creates a rate limiter and starts its eviction goroutine.
// Call Stop during shutdown.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		stopCh:  make(chan struct{}),
	}
	go rl.evictIdle()
	return rl
}

// evictIdle periodically drops buckets that have been idle long enough to be
// fully refilled anyway.
func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if b.refilled.Before(cutoff) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the eviction goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Allow reports whether a request from the given key fits its budget, and
// consumes a token if it does.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		// First request from this client starts with a full bucket.
		rl.buckets[key] = &bucket{
			tokens:   float64(rl.config.BurstSize) - 1,
			refilled: now,
		}
		return true
	}

	b.refill(now, rl.config.RequestsPerMinute, rl.config.BurstSize)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RemainingTokens returns the current token count for a key without consuming.
func (rl *RateLimiter) RemainingTokens(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, ok := rl.buckets[key]
	if !ok {
		return rl.config.BurstSize
	}

	elapsed := time.Since(b.refilled).Seconds()
	tokens := min(float64(rl.config.BurstSize), b.tokens+elapsed*float64(rl.config.RequestsPerMinute)/60.0)
	return int(tokens)
}

// RateLimitMiddleware rejects requests over budget with 429 and advertises the
// limit state in X-RateLimit-* headers.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKey(c)

		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.RemainingTokens(key)))

		c.Next()
	}
}

// rateLimitKey prefers the authenticated user ID and falls back to client IP.
func rateLimitKey(c *gin.Context) string {
	if userID, exists := c.Get(ContextUserID); exists {
		if id, ok := userID.(string); ok && id != "" {
			return "user:" + id
		}
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}
