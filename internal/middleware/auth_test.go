package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubVerifier struct {
	userID string
	err    error
}

func (s stubVerifier) VerifyAccess(string) (string, error) {
	return s.userID, s.err
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"missing", "", "", false},
		{"standard", "Bearer abc123", "abc123", true},
		{"case insensitive scheme", "bearer abc123", "abc123", true},
		{"wrong scheme", "Basic abc123", "", false},
		{"no token", "Bearer   ", "", false},
		{"bare value", "abc123", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			token, ok := bearerToken(r)
			if ok != tc.ok || token != tc.token {
				t.Fatalf("bearerToken() = (%q, %v), want (%q, %v)", token, ok, tc.token, tc.ok)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
	})

	handler := RequireUser(stubVerifier{userID: "user-1"})(next)

	// No token at all.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	// Valid token.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d, want %d", rec.Code, http.StatusOK)
	}
	if seen != "user-1" {
		t.Fatalf("user id on context = %q, want user-1", seen)
	}

	// Rejected token.
	handler = RequireUser(stubVerifier{err: errors.New("expired")})(next)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("rejected token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestOptionalUser(t *testing.T) {
	var seen string
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = UserID(r.Context())
	})

	// Anonymous requests pass through without a user id.
	handler := OptionalUser(stubVerifier{userID: "user-1"})(next)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called || seen != "" {
		t.Fatalf("anonymous request: called=%v user=%q, want called with no user", called, seen)
	}

	// A valid token attaches the user id.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "user-1" {
		t.Fatalf("user id on context = %q, want user-1", seen)
	}

	// An invalid token is rejected, not downgraded to anonymous.
	called = false
	handler = OptionalUser(stubVerifier{err: errors.New("expired")})(next)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if called {
		t.Fatal("next handler must not run for an invalid token")
	}
}
