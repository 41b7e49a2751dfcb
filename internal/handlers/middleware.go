package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"marketplace/internal/lifecycle"
	"marketplace/internal/session"
	"marketplace/models"
)

const sessionCookie = "session"

type ctxKey int

const userKey ctxKey = iota

func withUser(ctx context.Context, u *models.UserProfile) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// currentUser returns the profile attached by Authenticate.
func currentUser(r *http.Request) *models.UserProfile {
	u, _ := r.Context().Value(userKey).(*models.UserProfile)
	return u
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// Authenticate resolves the session token into a profile. The profile is
// re-read on every request so status changes apply immediately.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.Sessions.Lookup(r.Context(), sessionToken(r))
		if errors.Is(err, session.ErrNoSession) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		user, err := h.Store.GetProfile(r.Context(), userID)
		if errors.Is(err, lifecycle.ErrNotFound) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if user.Status == models.UserRejected || user.Status == models.UserSuspended {
			http.Error(w, "Account is "+string(user.Status), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// RequireRole lets through approved users holding one of roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r)
			if user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !user.Approved() {
				http.Error(w, "Account pending approval", http.StatusForbidden)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// RequestLogger пишет access log через zap
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
