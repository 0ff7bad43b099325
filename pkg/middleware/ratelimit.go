package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/troikatech/call-router/pkg/errors"
)

// RateLimiter is a per-client fixed-window limiter kept in process memory.
// It guards the admin API; webhooks are never limited.
type RateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	windows     map[string]*rateWindow
	now         func() time.Time
}

type rateWindow struct {
	start time.Time
	count int
}

func NewRateLimiter(maxRequestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequestsPerMinute,
		window:      time.Minute,
		windows:     make(map[string]*rateWindow),
		now:         time.Now,
	}
}

// Allow records one request for key and reports the remaining budget.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		w = &rateWindow{start: now}
		rl.windows[key] = w
	}
	w.count++

	if len(rl.windows) > 10000 {
		for k, old := range rl.windows {
			if now.Sub(old.start) >= rl.window {
				delete(rl.windows, k)
			}
		}
	}

	return w.count <= rl.maxRequests, rl.maxRequests - w.count
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("user_id")
		if key == "" {
			key = c.ClientIP()
		}

		allowed, remaining := rl.Allow(key)
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.maxRequests))
		if !allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
			errors.TooManyRequests(c, "rate limit exceeded")
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Next()
	}
}
