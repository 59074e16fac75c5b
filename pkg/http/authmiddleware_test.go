package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/txn2/chat-platform/pkg/auth"
)

func testAuthenticator() auth.Authenticator {
	return auth.NewAPIKeyAuthenticator([]auth.APIKey{
		{Key: "member-key", UserID: 7, Role: auth.RoleMember},
		{Key: "admin-key", UserID: 1, Role: auth.RoleAdmin},
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("authenticates Bearer token", func(t *testing.T) {
		var identity *auth.Identity
		var token string
		handler := RequireAuth(testAuthenticator())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			identity = auth.GetIdentity(r.Context())
			token = auth.GetToken(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer member-key")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if identity == nil || identity.UserID != 7 {
			t.Fatalf("expected identity for user 7, got %+v", identity)
		}
		if token != "member-key" {
			t.Errorf("expected token 'member-key', got %q", token)
		}
	})

	t.Run("authenticates X-API-Key header", func(t *testing.T) {
		var identity *auth.Identity
		handler := RequireAuth(testAuthenticator())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			identity = auth.GetIdentity(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-Key", "admin-key")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if identity == nil || !identity.IsAdmin() {
			t.Errorf("expected admin identity, got %+v", identity)
		}
	})

	t.Run("prefers Bearer over X-API-Key", func(t *testing.T) {
		var identity *auth.Identity
		handler := RequireAuth(testAuthenticator())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			identity = auth.GetIdentity(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer member-key")
		req.Header.Set("X-API-Key", "admin-key")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if identity == nil || identity.UserID != 7 {
			t.Errorf("expected Bearer token to take precedence, got %+v", identity)
		}
	})

	t.Run("returns 401 JSON when no token", func(t *testing.T) {
		called := false
		handler := RequireAuth(testAuthenticator())(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			called = true
		}))

		req := httptest.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if called {
			t.Error("handler should not be called")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rr.Code)
		}
		if rr.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Errorf("expected WWW-Authenticate header, got %q", rr.Header().Get("WWW-Authenticate"))
		}
		var p Problem
		if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if p.Status != http.StatusUnauthorized || p.Message == "" {
			t.Errorf("unexpected problem body: %+v", p)
		}
	})

	t.Run("returns 401 for invalid token", func(t *testing.T) {
		handler := RequireAuth(testAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rr.Code)
		}
	})

	t.Run("optional auth allows anonymous and invalid tokens", func(t *testing.T) {
		for _, header := range []string{"", "Bearer nope"} {
			var identity *auth.Identity
			called := false
			handler := OptionalAuth(testAuthenticator())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				called = true
				identity = auth.GetIdentity(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if !called {
				t.Errorf("handler should be called for %q", header)
			}
			if identity != nil {
				t.Errorf("expected no identity for %q, got %+v", header, identity)
			}
		}
	})

	t.Run("ignores empty Bearer value", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer ")
		req.Header.Set("X-API-Key", "member-key")

		if got := TokenFromHeader(req.Header); got != "member-key" {
			t.Errorf("expected fallback to X-API-Key, got %q", got)
		}
	})
}
