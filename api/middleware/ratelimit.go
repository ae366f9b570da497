package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/models"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool keeps one token bucket per identity.
type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

func (p *limiterPool) get(identity string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.limiters[identity]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.limiters[identity] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (p *limiterPool) evictIdle(cutoff time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, entry := range p.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(p.limiters, id)
		}
	}
}

// sweep evicts idle limiters until ctx is done.
func (p *limiterPool) sweep(ctx context.Context, every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.evictIdle(now.Add(-maxIdle))
		}
	}
}

// RateLimit returns per-identity (authenticated caller, else client IP)
// token-bucket rate limiting middleware powered by golang.org/x/time/rate.
// A non-positive rate disables limiting.
//
// Entries unused for 1 hour are evicted every 5 minutes by a background
// goroutine that exits when ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	pool := &limiterPool{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    burst,
	}

	go pool.sweep(ctx, 5*time.Minute, time.Hour)

	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RequestsPerSecond)))

	return func(c *gin.Context) {
		identity := c.GetString(IdentityContextKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !pool.get(identity).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewErrorResponse(
				models.ErrCodeRateLimited,
				"rate limit exceeded, please slow down",
			))
			return
		}

		c.Next()
	}
}
