package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bmsedge/edge-gateway/internal/admission"
	"github.com/bmsedge/edge-gateway/internal/ratelimit"
)

// RateLimitOptions configures the rate limiting middleware.
type RateLimitOptions struct {
	Limiter ratelimit.Limiter
	// Key derives the partition key for a request.
	Key ratelimit.KeyFunc
	// RetryAfter is advertised to rejected clients.
	RetryAfter time.Duration
	Logger     *slog.Logger
}

// RateLimitMiddleware rejects requests over the partition's budget with
// 429. A limiter store error fails open: the request proceeds and the
// error is logged, so a Redis outage never takes down admission.
func RateLimitMiddleware(opts RateLimitOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.Key(r)

			allowed, err := opts.Limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("rate limiter store error, failing open",
					slog.String("key", key),
					slog.Any("error", err),
				)
				allowed = true
			}

			if !allowed {
				if opts.RetryAfter > 0 {
					seconds := int(opts.RetryAfter.Round(time.Second).Seconds())
					if seconds < 1 {
						seconds = 1
					}
					w.Header().Set("Retry-After", strconv.Itoa(seconds))
				}
				w.Header().Set(admission.HeaderError, "rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
