package middlewares

import (
	"sync"
	"time"

	"github.com/BenjaminJRies/examen-bentoml/internal/api/models"

	"github.com/gin-gonic/gin"
)

type RateLimiter struct {
	visitors map[string]*Visitor
	mutex    sync.Mutex
	rate     int
	window   time.Duration
	cleanup  time.Duration
	now      func() time.Time
}

type Visitor struct {
	lastSeen time.Time
	count    int
	window   time.Time
}

// NewRateLimiter allows rate requests per window for each client
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*Visitor),
		rate:     rate,
		window:   window,
		cleanup:  10 * time.Minute,
		now:      time.Now,
	}
}

// RateLimit middleware limits each client IP to perMinute requests per minute.
// Zero or less disables limiting. Idle visitors are evicted until done is
// closed.
func RateLimit(perMinute int, done <-chan struct{}) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := NewRateLimiter(perMinute, time.Minute)
	go limiter.cleanupExpiredVisitors(done)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			Abort(c, models.ErrRateLimited)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	visitor, exists := rl.visitors[ip]

	if !exists {
		rl.visitors[ip] = &Visitor{
			lastSeen: now,
			count:    1,
			window:   now,
		}
		return true
	}

	visitor.lastSeen = now

	// Reset counter if window has passed
	if now.Sub(visitor.window) >= rl.window {
		visitor.count = 1
		visitor.window = now
		return true
	}

	if visitor.count >= rl.rate {
		return false
	}

	visitor.count++
	return true
}

func (rl *RateLimiter) evict() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for ip, visitor := range rl.visitors {
		if now.Sub(visitor.lastSeen) > rl.cleanup {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) cleanupExpiredVisitors(done <-chan struct{}) {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evict()
		case <-done:
			return
		}
	}
}
