package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/slotbook/backend/internal/interfaces/http/dto"
)

// RateLimiter keeps one token bucket per client key. A bucket holds limit
// tokens and refills one every period/limit.
// Counts are per process; replicas each enforce their own budget.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    int
	period   time.Duration
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per period.
// Call Stop to end its eviction goroutine.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		limit:    limit,
		period:   period,
		interval: period / time.Duration(limit),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.evict(period * 2)
	return rl
}

// Stop ends the eviction goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// evict drops buckets idle for a whole period; they would be full again anyway
func (rl *RateLimiter) evict(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.period {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(rl.interval), rl.limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Take consumes one token from key's bucket. It reports whether the
// request is allowed and how many whole tokens are left.
func (rl *RateLimiter) Take(key string) (allowed bool, remaining int) {
	now := rl.now()
	lim := rl.bucketFor(key, now)
	if !lim.AllowN(now, 1) {
		return false, 0
	}
	return true, max(int(math.Floor(lim.TokensAt(now))), 0)
}

// Allow is Take without the remaining count
func (rl *RateLimiter) Allow(key string) bool {
	allowed, _ := rl.Take(key)
	return allowed
}

// RateLimit limits every request per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return limitBy(limiter, "ip:", "Too many requests. Please try again later.")
}

// BookingRateLimit guards the anonymous booking endpoint. Its keys carry
// their own prefix so sharing a limiter with RateLimit never mixes budgets.
func BookingRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return limitBy(limiter, "booking:", "Too many booking attempts. Please try again later.")
}

func limitBy(limiter *RateLimiter, prefix, message string) gin.HandlerFunc {
	// an empty bucket yields its next token within one interval
	retryAfter := strconv.Itoa(max(int(math.Ceil(limiter.interval.Seconds())), 1))
	limit := strconv.Itoa(limiter.limit)

	return func(c *gin.Context) {
		allowed, remaining := limiter.Take(prefix + c.ClientIP())
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				message,
				requestIDOf(c),
			))
			return
		}
		c.Next()
	}
}
