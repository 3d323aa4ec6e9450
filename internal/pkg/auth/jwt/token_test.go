package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test_secret_key"

func TestGenerateAndVerifyRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-123", "Alice", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	identity, err := VerifyToken(token, testSecret)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}

	if identity.ID != "user-123" {
		t.Errorf("identity.ID = %q, want user-123", identity.ID)
	}
	if identity.Name != "Alice" {
		t.Errorf("identity.Name = %q, want Alice", identity.Name)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-123", "Alice", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := VerifyToken(token, "a_different_secret"); err == nil {
		t.Fatal("token signed with another secret verified successfully")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken("user-123", "Alice", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := VerifyToken(token, testSecret); err == nil {
		t.Fatal("expired token verified successfully")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := VerifyToken(token, testSecret); err == nil {
			t.Errorf("malformed token %q verified successfully", token)
		}
	}
}

func TestTokenFromRequestPrecedence(t *testing.T) {
	newReq := func() *http.Request {
		return httptest.NewRequest(http.MethodGet, "/ws", nil)
	}

	t.Run("query parameter wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
		r.Header.Set("Authorization", "Bearer from-header")
		if got := TokenFromRequest(r); got != "from-query" {
			t.Fatalf("TokenFromRequest = %q, want from-query", got)
		}
	})

	t.Run("bearer header", func(t *testing.T) {
		r := newReq()
		r.Header.Set("Authorization", "Bearer from-header")
		if got := TokenFromRequest(r); got != "from-header" {
			t.Fatalf("TokenFromRequest = %q, want from-header", got)
		}
	})

	t.Run("cookie fallback", func(t *testing.T) {
		r := newReq()
		r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "from-cookie"})
		if got := TokenFromRequest(r); got != "from-cookie" {
			t.Fatalf("TokenFromRequest = %q, want from-cookie", got)
		}
	})

	t.Run("malformed header is ignored", func(t *testing.T) {
		r := newReq()
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		if got := TokenFromRequest(r); got != "" {
			t.Fatalf("TokenFromRequest = %q, want empty", got)
		}
	})

	t.Run("no token anywhere", func(t *testing.T) {
		if got := TokenFromRequest(newReq()); got != "" {
			t.Fatalf("TokenFromRequest = %q, want empty", got)
		}
	})
}
