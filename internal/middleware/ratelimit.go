package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
}

// windowLimiter counts requests per bucket in fixed windows kept in Redis
type windowLimiter struct {
	store redis.Cmdable
	cfg   RateLimitConfig
}

// hit records one request for bucket and returns the count in the current
// window together with the time left until it resets.
func (l *windowLimiter) hit(ctx context.Context, bucket string) (int64, time.Duration, error) {
	key := l.cfg.KeyPrefix + ":" + bucket

	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	if _, err := l.store.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return 0, 0, err
	}

	resetIn := ttl.Val()
	if resetIn <= 0 {
		// first hit of a window: the key has no expiry yet
		if err := l.store.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			return 0, 0, err
		}
		resetIn = l.cfg.Window
	}
	return count.Val(), resetIn, nil
}

func (l *windowLimiter) writeHeaders(w http.ResponseWriter, remaining int, resetIn time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.RequestsPerWindow))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10))
}

// RateLimitMiddleware is a fixed-window limiter keyed by user, guest session
// or client address. Requests pass when Redis is unavailable.
func RateLimitMiddleware(store redis.Cmdable, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limiter := &windowLimiter{store: store, cfg: config}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := clientKey(r)

			count, resetIn, err := limiter.hit(r.Context(), bucket)
			if err != nil {
				logger.Warn("Rate limiter unavailable, letting request through",
					zap.String("bucket", bucket),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			remaining := config.RequestsPerWindow - int(count)
			limiter.writeHeaders(w, remaining, resetIn)

			if remaining < 0 {
				logger.Warn("Rate limit exceeded",
					zap.String("bucket", bucket),
					zap.Int64("count", count),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(resetIn.Seconds()))))
				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if userID, ok := GetUserID(r.Context()); ok {
		return "user:" + userID
	}
	if sessionID := r.Header.Get(SessionHeader); sessionID != "" {
		return "session:" + sessionID
	}
	return "addr:" + r.RemoteAddr
}
