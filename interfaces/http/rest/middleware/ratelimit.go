package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ideamap/pkg/auth"
	pkgerrors "ideamap/pkg/errors"
)

// KeyFunc picks the rate limit key of a request
type KeyFunc func(r *http.Request) string

// ByClientIP keys requests by client address
func ByClientIP(r *http.Request) string { return getClientIP(r) }

// BySession keys requests by the {id} route parameter
func BySession(r *http.Request) string { return chi.URLParam(r, "id") }

// RateLimit rejects requests over the limiter's budget. Limiter errors fail
// open.
func RateLimit(limiter auth.RateLimiter, key KeyFunc, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), key(r))
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
			} else if !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
