package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitOptions configures NewRateLimiter.
type RateLimitOptions struct {
	RPS   float64 // tokens replenished per second
	Burst int     // bucket size; <= 0 means 1

	// Key maps a request to its bucket. Defaults to KeyByUserOrIP.
	Key func(*gin.Context) string
	// Cost is the number of tokens a request takes, capped at Burst.
	// Defaults to 1 for every request.
	Cost func(*gin.Context) int
	// IdleTTL evicts buckets unused for this long. Defaults to 10 minutes.
	IdleTTL time.Duration
}

// KeyByUserOrIP keys buckets by the student Auth resolved, falling back to
// the client IP. The shared demo identity is keyed by IP so anonymous clients
// do not drain one bucket.
func KeyByUserOrIP() func(*gin.Context) string {
	return func(c *gin.Context) string {
		if s := UserID(c); s != "" && s != DemoUserID {
			return "user:" + s
		}
		return "ip:" + c.ClientIP()
	}
}

// RouteCost charges weight tokens for the listed route patterns (as reported
// by c.FullPath) and one token for everything else. Vision model and
// assistant calls are the expensive ones.
func RouteCost(weight int, routes ...string) func(*gin.Context) int {
	set := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		set[r] = struct{}{}
	}
	return func(c *gin.Context) int {
		if _, ok := set[c.FullPath()]; ok && weight > 1 {
			return weight
		}
		return 1
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local, per-key token bucket limiter. It is safe
// for concurrent use.
type RateLimiter struct {
	opts RateLimitOptions
	now  func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter applies defaults to opts and returns a limiter ready to be
// installed with Handler.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Key == nil {
		opts.Key = KeyByUserOrIP()
	}
	if opts.Cost == nil {
		opts.Cost = func(*gin.Context) int { return 1 }
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		opts:      opts,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// limiterFor returns the bucket for key, creating it on first use. At most
// once per IdleTTL it evicts buckets idle for longer than IdleTTL.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.opts.IdleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.opts.IdleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rl.opts.RPS), rl.opts.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// size returns the number of live buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as a
// replay, which is served without consuming tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the limiting middleware. A limited request gets 429 with
// Retry-After rounded up to whole seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key := rl.opts.Key(c)
		cost := rl.opts.Cost(c)
		if cost > rl.opts.Burst {
			cost = rl.opts.Burst
		}
		now := rl.now()

		res := rl.limiterFor(key, now).ReserveN(now, cost)
		if res.OK() && res.DelayFrom(now) == 0 {
			c.Next()
			return
		}
		wait := time.Second
		if res.OK() {
			wait = res.DelayFrom(now)
			res.CancelAt(now)
		}

		LoggerFrom(c).Warn().Str("bucket", key).Int("cost", cost).Dur("retry_after", wait).Msg("rate limited")
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       CodeRateLimited,
			"message":    "rate limit exceeded",
		})
	}
}
