package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/artbox-backend/internal/response"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

// ClientIPKey counts requests per client address.
func ClientIPKey(c *gin.Context) string { return c.ClientIP() }

// RateLimiter hands out rate requests per interval to each key. Idle
// buckets are swept while serving requests.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      int
	interval  time.Duration
	key       KeyFunc
	lastSweep time.Time
}

type bucket struct {
	tokens     int
	refilledAt time.Time
}

// NewRateLimiter creates a RateLimiter, e.g. 30 sign-in attempts per minute
// per address. A nil key counts per client IP.
func NewRateLimiter(rate int, interval time.Duration, key KeyFunc) *RateLimiter {
	if key == nil {
		key = ClientIPKey
	}
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		rate:      rate,
		interval:  interval,
		key:       key,
		lastSweep: time.Now(),
	}
}

// Middleware answers 429 with Retry-After once a key's bucket is empty.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.allow(rl.key(c), time.Now())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

// allow takes one token from key's bucket. When none is left it reports
// how long until the next refill.
func (rl *RateLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.rate, refilledAt: now}
		rl.buckets[key] = b
	}

	if periods := int(now.Sub(b.refilledAt) / rl.interval); periods > 0 {
		b.tokens = min(rl.rate, b.tokens+periods*rl.rate)
		b.refilledAt = b.refilledAt.Add(time.Duration(periods) * rl.interval)
	}

	if b.tokens <= 0 {
		return false, rl.interval - now.Sub(b.refilledAt)
	}
	b.tokens--
	return true, 0
}

func (rl *RateLimiter) sweep(now time.Time) {
	idle := 3 * rl.interval
	if now.Sub(rl.lastSweep) < idle {
		return
	}
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if now.Sub(b.refilledAt) > idle {
			delete(rl.buckets, key)
		}
	}
}
