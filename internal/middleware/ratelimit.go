package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const visitorIdle = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits each client IP to perMinute requests with the given
// burst. Idle clients are forgotten after ten minutes.
func RateLimiter(perMinute, burst int) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		visitors  = make(map[string]*visitor)
		lastSweep = time.Now()
	)
	limit := rate.Limit(float64(perMinute) / 60.0)

	getVisitor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastSweep) > visitorIdle {
			for key, v := range visitors {
				if now.Sub(v.lastSeen) > visitorIdle {
					delete(visitors, key)
				}
			}
			lastSweep = now
		}

		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(limit, burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter
	}

	return func(c *gin.Context) {
		if !getVisitor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// LoginLimiter is a sliding-window limiter shared by every API instance
// through Redis. It guards the credential endpoints.
type LoginLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewLoginLimiter allows limit attempts per client IP within window.
func NewLoginLimiter(rdb *redis.Client, limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, limit: limit, window: window, now: time.Now}
}

// Middleware returns the gin handler. Redis failures let the request through.
func (l *LoginLimiter) Middleware(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("pomodo:rate_limit:%s:%s", name, c.ClientIP())

		allowed, err := l.allow(c.Request.Context(), key)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "Rate limit check failed", "key", key, "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "too many attempts, try again later"})
			return
		}
		c.Next()
	}
}

func (l *LoginLimiter) allow(ctx context.Context, key string) (bool, error) {
	now := l.now().UnixNano()
	windowStart := now - l.window.Nanoseconds()

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: uuid.NewString()})
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	return count.Val() < int64(l.limit), nil
}
