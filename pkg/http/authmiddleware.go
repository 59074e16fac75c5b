// Package http provides HTTP middleware and response helpers for the chat
// platform.
package http

import (
	"net/http"
	"strings"

	"github.com/txn2/chat-platform/pkg/auth"
)

// TokenFromHeader returns the Bearer token, falling back to X-API-Key.
func TokenFromHeader(h http.Header) string {
	if token, ok := strings.CutPrefix(h.Get("Authorization"), "Bearer "); ok && token != "" {
		return token
	}
	return h.Get("X-API-Key")
}

// AuthMiddleware extracts credentials from the request, authenticates them
// and stores the resulting identity in the request context. When requireAuth
// is set, requests without a valid identity are rejected with 401.
func AuthMiddleware(authenticator auth.Authenticator, requireAuth bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromHeader(r.Header)
			if token == "" {
				if requireAuth {
					unauthorized(w, "missing authentication token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithToken(r.Context(), token)
			identity, err := authenticator.Authenticate(ctx)
			if err != nil {
				if requireAuth {
					unauthorized(w, err.Error())
					return
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = auth.WithIdentity(ctx, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth returns middleware that requires an authenticated identity.
func RequireAuth(authenticator auth.Authenticator) func(http.Handler) http.Handler {
	return AuthMiddleware(authenticator, true)
}

// OptionalAuth returns middleware that allows anonymous requests.
func OptionalAuth(authenticator auth.Authenticator) func(http.Handler) http.Handler {
	return AuthMiddleware(authenticator, false)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteError(w, http.StatusUnauthorized, "Unauthorized: "+msg)
}
