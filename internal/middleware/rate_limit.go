package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/Payphone-Digital/lms/internal/errors"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"github.com/gin-gonic/gin"
)

type LimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Limiter decides whether one more request for key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (LimitResult, error)
}

// MemoryLimiter is a per-process sliding window.
type MemoryLimiter struct {
	tokens     map[string][]time.Time
	maxRequest int
	duration   time.Duration
	now        func() time.Time
	mu         sync.Mutex
}

func NewMemoryLimiter(maxRequest int, duration time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		tokens:     make(map[string][]time.Time),
		maxRequest: maxRequest,
		duration:   duration,
		now:        time.Now,
	}
}

func (rl *MemoryLimiter) cleanup(now time.Time) {
	for key, tokens := range rl.tokens {
		var valid []time.Time
		for _, t := range tokens {
			if now.Sub(t) < rl.duration {
				valid = append(valid, t)
			}
		}
		if len(valid) > 0 {
			rl.tokens[key] = valid
		} else {
			delete(rl.tokens, key)
		}
	}
}

func (rl *MemoryLimiter) Allow(ctx context.Context, key string) (LimitResult, error) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanup(now)
	tokens := rl.tokens[key]

	result := LimitResult{Limit: rl.maxRequest, ResetAfter: rl.duration}
	if len(tokens) > 0 {
		result.ResetAfter = rl.duration - now.Sub(tokens[0])
	}

	if len(tokens) >= rl.maxRequest {
		return result, nil
	}

	rl.tokens[key] = append(tokens, now)
	result.Allowed = true
	result.Remaining = rl.maxRequest - len(tokens) - 1
	return result, nil
}

type windowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisLimiter is a fixed window shared by every instance behind the same
// Redis.
type RedisLimiter struct {
	counter    windowCounter
	prefix     string
	maxRequest int
	duration   time.Duration
}

func NewRedisLimiter(counter windowCounter, prefix string, maxRequest int, duration time.Duration) *RedisLimiter {
	return &RedisLimiter{
		counter:    counter,
		prefix:     prefix,
		maxRequest: maxRequest,
		duration:   duration,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (LimitResult, error) {
	count, ttl, err := rl.counter.IncrWindow(ctx, rl.prefix+key, rl.duration)
	if err != nil {
		return LimitResult{}, err
	}

	result := LimitResult{
		Allowed:    count <= int64(rl.maxRequest),
		Limit:      rl.maxRequest,
		ResetAfter: ttl,
	}
	if result.Allowed {
		result.Remaining = rl.maxRequest - int(count)
	}
	return result, nil
}

// RateLimit keys requests by client IP. A limiter backend failure lets the
// request through.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()

		result, err := limiter.Allow(ctx, ip)
		if err != nil {
			logger.ErrorWithContext(ctx, "Rate limiter unavailable").
				String("path", c.Request.URL.Path).
				Err(err).
				Log()
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(result.ResetAfter).Unix(), 10))

		if !result.Allowed {
			logger.WarnWithContext(ctx, "Rate limit exceeded").
				String("method", c.Request.Method).
				String("path", c.Request.URL.Path).
				Int("max_requests", result.Limit).
				Duration(result.ResetAfter).
				Log()

			retryAfter := int(result.ResetAfter.Round(time.Second) / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, apperrors.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
