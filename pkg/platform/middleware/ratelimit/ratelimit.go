// Package ratelimit provides a per-key request limiter with pluggable
// counting backends.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"proofgate/pkg/requestcontext"
)

// Result is the outcome of a single rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// KeyFunc derives the rate limit key for a request.
type KeyFunc func(r *http.Request) string

// ByCaller keys on the authenticated caller, falling back to the client IP
// for anonymous requests.
func ByCaller(r *http.Request) string {
	if caller := requestcontext.Caller(r.Context()); !caller.IsZero() {
		return "caller:" + caller.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// Middleware enforces the limit per key per window. Counting backend
// failures fail open.
func Middleware(store Store, limit int, window time.Duration, key KeyFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := store.Allow(r.Context(), key(r), limit, window)
			if err != nil {
				if logger != nil {
					logger.WarnContext(r.Context(), "rate limit check failed, allowing request",
						"error", err,
						"request_id", requestcontext.RequestID(r.Context()),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := max(int(time.Until(result.ResetAt).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = fmt.Fprint(w, `{"error":"rate_limited"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
