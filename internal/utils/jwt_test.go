package utils

import (
	"testing"
	"time"
)

func TestRefreshTokenRoundTrip(t *testing.T) {
	const secret = "refresh-secret"

	tok, err := NewRefreshToken(secret, 42, "USER", 7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if tok.Raw == "" || tok.SessionID == "" {
		t.Fatal("expected raw token and session id")
	}

	uid, err := ParseRefreshToken(secret, tok.Raw)
	if err != nil {
		t.Fatalf("ParseRefreshToken: %v", err)
	}
	if uid != 42 {
		t.Errorf("subject = %d, want 42", uid)
	}
}

func TestParseRefreshTokenWrongSecret(t *testing.T) {
	tok, err := NewRefreshToken("secret-a", 7, "USER", 7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if _, err := ParseRefreshToken("secret-b", tok.Raw); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRefreshTokenGarbage(t *testing.T) {
	if _, err := ParseRefreshToken("secret", "not-a-jwt"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	a, err := NewRefreshToken("secret", 1, "USER", 7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, err := NewRefreshToken("secret", 1, "USER", 7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if a.SessionID == b.SessionID {
		t.Error("two logins produced the same session id")
	}
	if a.Raw == b.Raw {
		t.Error("two logins produced the same token")
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("value")
	h2 := HashToken("value")
	if h1 != h2 {
		t.Error("hash not deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
	if HashToken("other") == h1 {
		t.Error("different inputs produced the same hash")
	}
}

func TestNewMailToken(t *testing.T) {
	raw, hash, exp, err := NewMailToken(time.Hour)
	if err != nil {
		t.Fatalf("NewMailToken: %v", err)
	}
	if HashToken(raw) != hash {
		t.Error("stored hash does not match raw token")
	}
	if until := time.Until(exp); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("expiry %v not about an hour away", exp)
	}
}

func TestNewAccessToken(t *testing.T) {
	tok, err := NewAccessToken("secret", 9, "ADMIN", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("expected a signed token")
	}
	if until := time.Until(tok.Exp); until < 14*time.Minute || until > 16*time.Minute {
		t.Errorf("expiry %v not about 15 minutes away", tok.Exp)
	}
}
