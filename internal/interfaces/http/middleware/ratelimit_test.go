package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets refills be tested without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, limit int, period time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, period)
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiter_Take(t *testing.T) {
	rl, clock := newTestLimiter(t, 3, time.Minute)

	for want := 2; want >= 0; want-- {
		allowed, remaining := rl.Take("203.0.113.7")
		require.True(t, allowed)
		assert.Equal(t, want, remaining)
	}
	allowed, remaining := rl.Take("203.0.113.7")
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	assert.True(t, rl.Allow("198.51.100.2"), "budgets are per key")

	// one token every 20s
	clock.Advance(19 * time.Second)
	assert.False(t, rl.Allow("203.0.113.7"), "no token has refilled yet")

	clock.Advance(2 * time.Second)
	assert.True(t, rl.Allow("203.0.113.7"))
	assert.False(t, rl.Allow("203.0.113.7"), "only one token refilled")

	clock.Advance(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("203.0.113.7"), "an idle bucket refills up to the burst")
	}
	assert.False(t, rl.Allow("203.0.113.7"))
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)

	rl.Allow("203.0.113.7")
	clock.Advance(45 * time.Second)
	rl.Allow("198.51.100.2")

	clock.Advance(15 * time.Second)
	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "203.0.113.7")
	assert.Contains(t, rl.buckets, "198.51.100.2")
}

func TestNewRateLimiter_ClampsSettings(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	t.Cleanup(rl.Stop)

	assert.Equal(t, 1, rl.limit)
	assert.Equal(t, time.Minute, rl.interval)
}

func TestRateLimiter_ConcurrentTakes(t *testing.T) {
	rl, _ := newTestLimiter(t, 25, time.Minute)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(25), allowed.Load())
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func postBooking(r http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookingRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, clock := newTestLimiter(t, 2, time.Minute)

	r := gin.New()
	r.POST("/bookings", BookingRateLimit(rl), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := postBooking(r, "203.0.113.7:5100")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusCreated, postBooking(r, "203.0.113.7:5101").Code)

	w = postBooking(r, "203.0.113.7:5102")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"), "one token every 30s")
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
	assert.Contains(t, w.Body.String(), "Too many booking attempts")

	assert.Equal(t, http.StatusCreated, postBooking(r, "198.51.100.2:4000").Code, "other visitors keep their budget")

	clock.Advance(time.Minute)
	assert.Equal(t, http.StatusCreated, postBooking(r, "203.0.113.7:5103").Code)
}

func TestRateLimit_SeparateFromBookingBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(t, 1, time.Minute)

	r := gin.New()
	r.Use(RateLimit(rl))
	r.POST("/bookings", BookingRateLimit(rl), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	r.GET("/public/directory", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusCreated, postBooking(r, "203.0.113.7:5100").Code,
		"the global and booking budgets are tracked under different keys")

	req := httptest.NewRequest(http.MethodGet, "/public/directory", nil)
	req.RemoteAddr = "203.0.113.7:5101"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")
}
