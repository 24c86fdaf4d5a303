package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"gym-class-booking/internal/apperr"
	"gym-class-booking/internal/models"

	"go.uber.org/zap"
)

type identityContextKey struct{}

// WithIdentity stores the caller identity in ctx.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the caller identity, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*models.Identity)
	return identity
}

// authenticate resolves an optional bearer token. Requests without an
// Authorization header continue anonymously; a bad token is rejected.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.writeError(w, r, apperr.Unauthorized("missing or invalid authorization header"))
			return
		}
		identity, err := h.verifier.Verify(token)
		if err != nil {
			h.writeError(w, r, apperr.Unauthorized("invalid or expired token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func (h *Handler) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.requestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
