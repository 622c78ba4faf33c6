package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Buckets idle this long are dropped once the limiter tracks maxBuckets callers
const (
	maxBuckets  = 10000
	idleBuckets = 10 * time.Minute
)

// EditLimiter is a token bucket per caller. Each caller may burst up to
// maxTokens edits and earns one token back every refill interval.
type EditLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	maxTokens int
	refill    time.Duration
	now       func() time.Time
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewEditLimiter allows perMinute edits per caller per minute
func NewEditLimiter(perMinute int) *EditLimiter {
	return &EditLimiter{
		buckets:   make(map[string]*bucket),
		maxTokens: perMinute,
		refill:    time.Minute / time.Duration(perMinute),
		now:       time.Now,
	}
}

// Allow takes a token for key, reporting false when none is left
func (l *EditLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxBuckets {
			l.sweep(now, idleBuckets)
		}
		b = &bucket{tokens: l.maxTokens, lastRefill: now}
		l.buckets[key] = b
	}

	if earned := int(now.Sub(b.lastRefill) / l.refill); earned > 0 {
		b.tokens = min(b.tokens+earned, l.maxTokens)
		b.lastRefill = b.lastRefill.Add(time.Duration(earned) * l.refill)
	}
	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

func (l *EditLimiter) sweep(now time.Time, idle time.Duration) {
	for key, b := range l.buckets {
		if now.Sub(b.lastRefill) > idle {
			delete(l.buckets, key)
		}
	}
}

// StatusWriter renders an error response for a bare status
type StatusWriter interface {
	HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string)
}

// RateLimit rejects mutating requests once the caller's bucket is empty.
// Reads are never limited. It must run after Identity.
func RateLimit(limiter *EditLimiter, errs StatusWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			userID := UserIDFromContext(r.Context())
			if !limiter.Allow(userID) {
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.refill.Seconds())+1))
				errs.HandleStatus(w, r, http.StatusTooManyRequests, fmt.Sprintf("edit rate exceeded for %s", userID))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
