package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/troikatech/call-router/pkg/errors"
)

// AuthRateLimiter blocks an IP for blockSec after maxAttempts logins within windowSec
type AuthRateLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	block       time.Duration
}

func NewAuthRateLimiter(client *redis.Client, maxAttempts, windowSec, blockSec int) *AuthRateLimiter {
	return &AuthRateLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      time.Duration(windowSec) * time.Second,
		block:       time.Duration(blockSec) * time.Second,
	}
}

func (arl *AuthRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := "auth_ratelimit:" + ip
		blockKey := "auth_blocked:" + ip
		ctx := c.Request.Context()

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", arl.maxAttempts))

		if ttl, err := arl.client.TTL(ctx, blockKey).Result(); err == nil && ttl > 0 {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			errors.TooManyRequests(c, "too many authentication attempts")
			return
		}

		count, err := arl.client.Incr(ctx, key).Result()
		if err != nil {
			// fail open
			c.Next()
			return
		}
		if count == 1 {
			arl.client.Expire(ctx, key, arl.window)
		}

		if count > int64(arl.maxAttempts) {
			arl.client.Set(ctx, blockKey, "1", arl.block)
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", int(arl.block.Seconds())))
			errors.TooManyRequests(c, "too many authentication attempts")
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", arl.maxAttempts-int(count)))
		c.Next()
	}
}
