package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"rentease/pkg/logger"
)

type cachedResponse struct {
	statusCode int
	headers    http.Header
	body       []byte
	createdAt  time.Time
}

type idempotencyEntry struct {
	inFlight bool
	done     chan struct{}
	response *cachedResponse
}

// IdempotencyStore keeps completed responses keyed by the Idempotency-Key
// header so retried mutations replay the original outcome.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	log     *logger.Logger
}

func NewIdempotencyStore(ttl time.Duration, log *logger.Logger) *IdempotencyStore {
	store := &IdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     ttl,
		log:     log,
	}

	go store.cleanupLoop()

	return store
}

func (s *IdempotencyStore) cleanupLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		cutoff := time.Now().Add(-s.ttl)
		for key, entry := range s.entries {
			if entry.response != nil && entry.response.createdAt.Before(cutoff) {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}

type recordingWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	written    bool
}

func (rw *recordingWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// Idempotency replays cached responses for repeated mutation requests that
// carry the same Idempotency-Key. Concurrent duplicates wait for the first
// request to finish instead of executing twice.
func Idempotency(store *IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutatesState(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			store.mu.Lock()
			entry, exists := store.entries[key]
			if exists {
				store.mu.Unlock()

				if entry.inFlight {
					<-entry.done
				}

				if entry.response != nil {
					replay(w, entry.response)
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			entry = &idempotencyEntry{inFlight: true, done: make(chan struct{})}
			store.entries[key] = entry
			store.mu.Unlock()

			rw := &recordingWriter{ResponseWriter: w, statusCode: 200}
			next.ServeHTTP(rw, r)

			store.mu.Lock()
			entry.inFlight = false
			if rw.statusCode < 500 {
				entry.response = &cachedResponse{
					statusCode: rw.statusCode,
					headers:    w.Header().Clone(),
					body:       rw.body.Bytes(),
					createdAt:  time.Now(),
				}
			} else {
				// server errors are retryable, drop the entry
				delete(store.entries, key)
			}
			store.mu.Unlock()
			close(entry.done)
		})
	}
}

func mutatesState(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func replay(w http.ResponseWriter, resp *cachedResponse) {
	for key, values := range resp.headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.Header().Set("X-Idempotent-Replay", "true")
	w.WriteHeader(resp.statusCode)
	_, _ = w.Write(resp.body)
}
