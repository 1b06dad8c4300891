package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stckr/qr-server-go/internal/audit"
	"github.com/stckr/qr-server-go/internal/redis"
	"github.com/stckr/qr-server-go/internal/service"
)

const rateLimitWindow = 60 * time.Second

// UserRateLimitMiddleware applies a per-user sliding window limit to
// authenticated routes. Runs after auth; anonymous requests pass through
// (they are covered by the IP limiter).
type UserRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
}

func NewUserRateLimitMiddleware(limiter *service.RateLimiter, limit int) *UserRateLimitMiddleware {
	return &UserRateLimitMiddleware{limiter: limiter, limit: limit}
}

func (m *UserRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := redis.UserRateLimitKey(user.ID)
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, m.limit, rateLimitWindow)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			log.Warn().Str("userId", user.ID).Msg("rate limit exceeded")
			audit.LogFromRequest(r, audit.Event{
				Type:   audit.EventRateLimitExceed,
				UserID: user.ID,
			})
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
