package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"jarvis/internal/logging"
)

const (
	SessionCookie = "session_token"
	AdminCookie   = "admin_token"
	AdminHeader   = "X-Admin-Token"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	userKey  contextKey = "user"
	adminKey contextKey = "admin"
)

// Resolver maps a token to an identity
type Resolver interface {
	ResolveToken(ctx context.Context, token string) (*Identity, error)
}

// SessionGate resolves the session token (Authorization: Bearer or the
// session_token cookie) and the admin token (X-Admin-Token or the admin_token
// cookie) and stores the resulting identities in the request context. It
// never rejects a request; RequireUser and RequireAdmin do that.
func SessionGate(resolver Resolver, logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := SessionToken(r); token != "" {
				id, err := resolver.ResolveToken(ctx, token)
				switch {
				case err == nil && id.Kind == KindAdmin:
					ctx = WithAdmin(ctx, *id)
				case err == nil:
					ctx = WithUser(ctx, *id)
				default:
					logger.Debug("session token rejected: %v", err)
				}
			}

			if token := AdminToken(r); token != "" {
				id, err := resolver.ResolveToken(ctx, token)
				if err == nil && id.Kind == KindAdmin {
					ctx = WithAdmin(ctx, *id)
				} else {
					logger.Debug("admin token rejected")
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests without an account identity with 401
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			writeDenied(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests without admin capability with 403
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			writeDenied(w, http.StatusForbidden, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeDenied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": message})
}

// SessionToken extracts the user token from the request. The Authorization
// header wins over the cookie.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// AdminToken extracts the admin token from the request
func AdminToken(r *http.Request) string {
	if h := r.Header.Get(AdminHeader); h != "" {
		return h
	}
	if c, err := r.Cookie(AdminCookie); err == nil {
		return c.Value
	}
	return ""
}

// WithUser returns a context carrying an account identity
func WithUser(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// WithAdmin returns a context carrying admin capability
func WithAdmin(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, adminKey, id)
}

// UserFrom returns the account identity bound to the request, if any
func UserFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(userKey).(Identity)
	return id, ok
}

// AdminFrom returns the admin identity bound to the request, if any
func AdminFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(adminKey).(Identity)
	return id, ok
}

// IsAdmin reports whether the request carries admin capability
func IsAdmin(ctx context.Context) bool {
	_, ok := AdminFrom(ctx)
	return ok
}
