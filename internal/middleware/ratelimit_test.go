package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestLimiter(rpm, burst int) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: rpm,
		BurstSize:         burst,
		CleanupInterval:   time.Hour, // no eviction during tests
	})
}

func TestRateLimitProfiles(t *testing.T) {
	general := DefaultRateLimitConfig()
	auth := AuthRateLimitConfig()

	if general.RequestsPerMinute != 200 || general.BurstSize != 50 {
		t.Errorf("general profile = %d rpm / %d burst, want 200/50",
			general.RequestsPerMinute, general.BurstSize)
	}
	if auth.RequestsPerMinute != 10 || auth.BurstSize != 5 {
		t.Errorf("auth profile = %d rpm / %d burst, want 10/5",
			auth.RequestsPerMinute, auth.BurstSize)
	}
	if auth.RequestsPerMinute >= general.RequestsPerMinute {
		t.Error("auth endpoints must be limited more strictly than general traffic")
	}
}

func TestRateLimiter_AllowsExactlyBurst(t *testing.T) {
	const burst = 3
	rl := newTestLimiter(600, burst)
	defer rl.Stop()

	allowed := 0
	for i := 0; i < burst+2; i++ {
		if rl.Allow("client-a") {
			allowed++
		}
	}
	if allowed != burst {
		t.Errorf("allowed %d requests with burst=%d, want exactly %d", allowed, burst, burst)
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl := newTestLimiter(600, 2) // 10 tokens per second
	defer rl.Stop()

	for rl.Allow("client-b") {
	}

	time.Sleep(120 * time.Millisecond)

	if !rl.Allow("client-b") {
		t.Error("Allow() = false after refill window, want true")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newTestLimiter(60, 2)
	defer rl.Stop()

	for rl.Allow("drained") {
	}

	if !rl.Allow("fresh") {
		t.Error("exhausting one key must not affect another")
	}
}

func TestRateLimiter_RemainingTokens(t *testing.T) {
	const burst = 10
	rl := newTestLimiter(60, burst)
	defer rl.Stop()

	if got := rl.RemainingTokens("never-seen"); got != burst {
		t.Errorf("RemainingTokens(unseen) = %d, want full burst %d", got, burst)
	}

	rl.Allow("seen")
	if got := rl.RemainingTokens("seen"); got < 0 || got >= burst {
		t.Errorf("RemainingTokens after one request = %d, want 0..%d", got, burst-1)
	}
}

func TestRateLimitKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(remoteAddr string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		c.Request = req
		return c
	}

	t.Run("authenticated user takes priority", func(t *testing.T) {
		c := newCtx("192.168.1.1:12345")
		c.Set(ContextUserID, "user-123")
		if got := rateLimitKey(c); got != "user:user-123" {
			t.Errorf("key = %q, want user:user-123", got)
		}
	})

	t.Run("anonymous falls back to IP", func(t *testing.T) {
		c := newCtx("192.168.1.1:12345")
		if got := rateLimitKey(c); !strings.HasPrefix(got, "ip:") {
			t.Errorf("key = %q, want ip: prefix", got)
		}
	})

	t.Run("empty user ID falls back to IP", func(t *testing.T) {
		c := newCtx("10.0.0.1:9999")
		c.Set(ContextUserID, "")
		if got := rateLimitKey(c); !strings.HasPrefix(got, "ip:") {
			t.Errorf("key = %q, want ip: prefix when user ID is empty", got)
		}
	})
}

func newRateLimitRouter(limiter *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func sendFrom(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_AllowedCarriesHeaders(t *testing.T) {
	rl := newTestLimiter(120, 20)
	defer rl.Stop()

	w := sendFrom(newRateLimitRouter(rl), "10.0.0.1:1234")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "120" {
		t.Errorf("X-RateLimit-Limit = %q, want 120", got)
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("X-RateLimit-Remaining header missing on allowed request")
	}
}

func TestRateLimitMiddleware_OverBudget(t *testing.T) {
	rl := newTestLimiter(1, 1)
	defer rl.Stop()
	r := newRateLimitRouter(rl)

	if w := sendFrom(r, "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}

	w := sendFrom(r, "10.0.0.2:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0 on rejection", got)
	}
	if !strings.Contains(w.Body.String(), "retry_after") {
		t.Errorf("body = %s, want retry_after field", w.Body.String())
	}
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 600,
		BurstSize:         10,
		CleanupInterval:   10 * time.Millisecond,
	})
	defer rl.Stop()

	rl.Allow("stale-client")

	// Back-date the bucket so the next eviction tick removes it.
	rl.mu.Lock()
	if b, ok := rl.buckets["stale-client"]; ok {
		b.refilled = time.Now().Add(-11 * time.Minute)
	}
	rl.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		rl.mu.RLock()
		_, present := rl.buckets["stale-client"]
		rl.mu.RUnlock()
		if !present {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("idle bucket was not evicted")
}
