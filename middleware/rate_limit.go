package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	mu        sync.Mutex
	tokens    map[string]int
	lastReset time.Time
	rate      int           // requests per window
	window    time.Duration // time window
	now       func() time.Time
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:    make(map[string]int),
		lastReset: time.Now(),
		rate:      rate,
		window:    window,
		now:       time.Now,
	}
}

// Allow counts one request for key and reports whether it fits the window.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now := l.now(); now.Sub(l.lastReset) > l.window {
		l.tokens = make(map[string]int)
		l.lastReset = now
	}
	if l.tokens[key] >= l.rate {
		return false
	}
	l.tokens[key]++
	return true
}

// RateLimit limits requests per client IP.
func RateLimit(rate int, window time.Duration) gin.HandlerFunc {
	return RateLimitBy(NewRateLimiter(rate, window), func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitBy limits requests per key. Authenticated routes key by user so
// autosave bursts from one person do not starve a shared office IP.
func RateLimitBy(limiter *RateLimiter, key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if !limiter.Allow(k) {
			slog.Warn("rate limit exceeded",
				"key", k,
				"client_ip", c.ClientIP(),
				"request_id", GetRequestID(c),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// UserKey keys by username, falling back to client IP.
func UserKey(c *gin.Context) string {
	if u := GetUsername(c); u != "" {
		return "user:" + u
	}
	return c.ClientIP()
}
