package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/dto"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/logger"
)

// GlobalRateLimit caps the process-wide request rate with a token bucket.
func GlobalRateLimit(perSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate_limited", "Rate limit exceeded"))
			return
		}
		c.Next()
	}
}

// FixedWindowLimiter counts requests per key in Redis windows of a fixed length.
type FixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewFixedWindowLimiter(client redis.UniversalClient, prefix string, limit int64, window time.Duration) *FixedWindowLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindowLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow increments the counter for key and reports whether the request fits the window,
// together with the time until the window resets.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.client == nil {
		return false, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		key = "unknown"
	}

	now := l.now()
	windowStart := now.Truncate(l.window)
	storeKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, storeKey)
	pipe.Expire(ctx, storeKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	retryAfter := windowStart.Add(l.window).Sub(now)
	return incr.Val() <= l.limit, retryAfter, nil
}

// ClientRateLimit applies the limiter per client IP. Redis failures let the request through.
func ClientRateLimit(l *FixedWindowLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			c.Header("Retry-After", strconv.Itoa(max(seconds, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate_limited", "Too many requests, please slow down"))
			return
		}
		c.Next()
	}
}
