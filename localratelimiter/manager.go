package localratelimiter

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	limiterTTL      = time.Minute
	cleanupInterval = time.Minute
)

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than limiterTTL are evicted by go-cache.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
	mutex    sync.Mutex
}

// NewRateLimiter creates a new RateLimiter instance. perSecond <= 0 disables
// limiting entirely.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: cache.New(limiterTTL, cleanupInterval),
	}
}

func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.limit > 0
}

// Allow reports whether key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}
	return rl.getLimiter(key).Allow()
}

// RateLimiterMiddleware returns a gin.HandlerFunc that enforces rate limiting
// per client IP. onLimited writes the rejection; the chain is aborted after it.
func (rl *RateLimiter) RateLimiterMiddleware(onLimited gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		onLimited(c)
		c.Abort()
	}
}

// Helper function to get a rate limiter from the cache, creating a new one if necessary
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if entry, found := rl.limiters.Get(key); found {
		// refresh expiry on every hit
		rl.limiters.SetDefault(key, entry)
		return entry.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters.SetDefault(key, limiter)
	return limiter
}
