package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evenup-dev/evenup/internal/auth"
)

func newTestManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)
}

func identityEcho(t *testing.T, wantUser, wantName string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetUserID(r.Context()); got != wantUser {
			t.Errorf("expected user %q in context, got %q", wantUser, got)
		}
		if got := GetUsername(r.Context()); got != wantName {
			t.Errorf("expected username %q in context, got %q", wantName, got)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuth(t *testing.T) {
	mgr := newTestManager()
	handler := RequireAuth(mgr)(identityEcho(t, "user-1", "alice"))

	t.Run("rejects missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("passes valid token and injects identity", func(t *testing.T) {
		token, err := mgr.Generate("user-1", "alice")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})
}

func TestOptionalAuth(t *testing.T) {
	mgr := newTestManager()

	t.Run("anonymous passes through", func(t *testing.T) {
		handler := OptionalAuth(mgr)(identityEcho(t, "", ""))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		handler := OptionalAuth(mgr)(identityEcho(t, "user-2", "bob"))
		token, err := mgr.Generate("user-2", "bob")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	mgr := newTestManager()
	isAdmin := func(userID string) bool { return userID == "user-admin" }
	handler := RequireAuth(mgr)(RequireAdmin(isAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	t.Run("forbids regular users", func(t *testing.T) {
		token, err := mgr.Generate("user-1", "alice")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("admits configured admins", func(t *testing.T) {
		token, err := mgr.Generate("user-admin", "root")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})
}
