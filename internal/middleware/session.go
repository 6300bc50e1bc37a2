package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lunchuis/panel/internal/auth"
	"github.com/lunchuis/panel/internal/enum"
	"github.com/lunchuis/panel/internal/store"
)

type contextKey string

const sessionKey contextKey = "session"

// Session extracts the session user from a bearer token when one is
// present. Requests without a token (or with a bad one) pass through
// anonymous rather than being rejected; handlers that need a user decide
// for themselves.
func Session(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess := &store.Session{
				Username: claims.Username,
				FullName: claims.FullName,
				Role:     claims.Role,
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose session is missing or not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		if sess.Role != enum.RoleAdmin {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext returns the request's session user, or nil.
func SessionFromContext(ctx context.Context) *store.Session {
	sess, _ := ctx.Value(sessionKey).(*store.Session)
	return sess
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
