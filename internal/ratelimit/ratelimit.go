// Package ratelimit throttles request volume per client address with a
// fixed one-minute window. Counters live in a pluggable store: in-process
// for a single instance, Redis when multiple instances must share state.
package ratelimit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/captainsofcommerce/events-api/internal/model"
)

// Store counts requests per key within the current window and reports when
// the window resets.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, reset time.Time, err error)
}

// Limiter is a pre-request gate: allow, or reject with retry-after.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
	log    *logrus.Logger
}

// New constructs a Limiter allowing max requests per window per client.
func New(store Store, max int, window time.Duration, log *logrus.Logger) *Limiter {
	return &Limiter{store: store, max: max, window: window, log: log}
}

// Middleware enforces the limit. Store failures fail open: throttling is
// not worth taking the site down for.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		count, reset, err := l.store.Incr(r.Context(), ip, l.window)
		if err != nil {
			l.log.WithError(err).Warn("rate limit store unavailable")
			next.ServeHTTP(w, r)
			return
		}

		remaining := l.max - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", reset.UTC().Format(time.RFC3339))

		if count > l.max {
			retryAfter := int(time.Until(reset).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware has already folded X-Forwarded-For into
	// RemoteAddr when present.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type memoryEntry struct {
	count int
	reset time.Time
}

// MemoryStore keeps counters in an in-process map. Counters are not shared
// across instances; use the Redis store when running more than one.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// Incr implements Store.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.reset) {
			delete(s.entries, k)
		}
	}

	e, ok := s.entries[key]
	if !ok {
		e = &memoryEntry{reset: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.reset, nil
}
