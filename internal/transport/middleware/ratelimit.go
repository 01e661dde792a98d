package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(r *http.Request) string

// ClientIP keys requests by the remote host, without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiter is a keyed token bucket limiter. Idle buckets are dropped by
// a background sweeper; call Stop on shutdown.
type RateLimiter struct {
	buckets sync.Map // map[string]*bucket
	stop    chan struct{}
	once    sync.Once
	idleTTL time.Duration
	now     func() time.Time
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	perSecond  float64
	lastRefill time.Time
}

// NewRateLimiter starts a limiter whose sweeper runs every cleanupInterval.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		stop:    make(chan struct{}),
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
	go rl.sweep(cleanupInterval)
	return rl
}

// Stop terminates the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit allows perMinute requests per key, refilled continuously, and
// answers 429 with a Retry-After header beyond that. perMinute <= 0 disables
// limiting.
func (rl *RateLimiter) Limit(perMinute int, key KeyFunc) Middleware {
	return func(next http.Handler) http.Handler {
		if perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.bucket(key(r), perMinute).take(rl.now()) {
				w.Header().Set("Retry-After", strconv.Itoa(60/perMinute+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"}) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) bucket(key string, perMinute int) *bucket {
	if b, ok := rl.buckets.Load(key); ok {
		return b.(*bucket)
	}
	capacity := float64(perMinute)
	b, _ := rl.buckets.LoadOrStore(key, &bucket{
		tokens:     capacity,
		capacity:   capacity,
		perSecond:  capacity / 60,
		lastRefill: rl.now(),
	})
	return b.(*bucket)
}

func (b *bucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = min(b.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*b.perSecond)
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (b *bucket) idleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastRefill)
}

func (rl *RateLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			now := rl.now()
			rl.buckets.Range(func(k, v any) bool {
				if v.(*bucket).idleSince(now) > rl.idleTTL {
					rl.buckets.Delete(k)
				}
				return true
			})
		}
	}
}
