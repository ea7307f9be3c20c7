package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"rentease/pkg/logger"
)

type clientBucket struct {
	count       int
	windowStart time.Time
}

// ClientRateLimiter applies a fixed-window request limit per client.
// Authenticated clients are keyed by bearer token, anonymous ones by
// remote address.
type ClientRateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*clientBucket
	limit    int
	window   time.Duration
	log      *logger.Logger
	stopOnce sync.Once
	stop     chan struct{}
}

func NewClientRateLimiter(limit int, window time.Duration, log *logger.Logger) *ClientRateLimiter {
	rl := &ClientRateLimiter{
		buckets: make(map[string]*clientBucket),
		limit:   limit,
		window:  window,
		log:     log,
		stop:    make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *ClientRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-2 * rl.window)
			for key, bucket := range rl.buckets {
				if bucket.windowStart.Before(cutoff) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *ClientRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow reports whether the client identified by key may proceed.
func (rl *ClientRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	bucket, ok := rl.buckets[key]
	if !ok || now.Sub(bucket.windowStart) >= rl.window {
		rl.buckets[key] = &clientBucket{count: 1, windowStart: now}
		return true
	}

	if bucket.count >= rl.limit {
		return false
	}

	bucket.count++
	return true
}

func RateLimit(rl *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			if !rl.Allow(key) {
				rl.log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"message":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return "token:" + strings.TrimPrefix(auth, "Bearer ")
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}
