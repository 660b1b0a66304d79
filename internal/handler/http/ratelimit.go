package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/utafrali/FocusGate/pkg/httputil"
	"github.com/utafrali/FocusGate/pkg/middleware"
)

const limiterIdleTTL = 10 * time.Minute

func perMinute(n int) rate.Limit {
	return rate.Every(time.Minute / time.Duration(max(n, 1)))
}

type userBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// userLimiter keeps a token bucket per authenticated user. Buckets idle for
// longer than limiterIdleTTL are evicted on access.
type userLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*userBucket
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newUserLimiter(limit rate.Limit, burst int) *userLimiter {
	return &userLimiter{
		buckets: make(map[string]*userBucket),
		limit:   limit,
		burst:   max(burst, 1),
		now:     time.Now,
	}
}

// allow reports whether userID may make another request now.
func (l *userLimiter) allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for id, b := range l.buckets {
			if now.Sub(b.lastSeen) > limiterIdleTTL {
				delete(l.buckets, id)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[userID]
	if !ok {
		b = &userBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[userID] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *userLimiter) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit throttles a route per authenticated user and answers 429 once
// the user's bucket is empty. Mount it behind middleware.Auth.
func RateLimit(l *userLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := middleware.UserIDFromContext(r.Context())
			if !l.allow(userID) {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("path", r.URL.Path),
				)
				httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "RATE_LIMITED", Message: "too many requests"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
