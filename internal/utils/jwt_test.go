package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "walter", 60)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}

	id, username, err := TokenIdentity("secret", tok.Token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if id != 42 || username != "walter" {
		t.Fatalf("unexpected identity: id=%d username=%q", id, username)
	}
}

func TestTokenIdentityWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "u", 60)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, _, err := TokenIdentity("other-secret", tok.Token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestTokenIdentityExpired(t *testing.T) {
	// Negative TTL produces a token that is already past its exp claim.
	tok, err := NewAccessToken("secret", 1, "u", -61)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	_, _, err = TokenIdentity("secret", tok.Token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenExpiryWithoutVerification(t *testing.T) {
	tok, err := NewAccessToken("secret", 7, "u", 60)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	exp, err := TokenExpiry(tok.Token)
	if err != nil {
		t.Fatalf("expiry error: %v", err)
	}
	if d := exp.Sub(tok.Exp); d > time.Second || d < -time.Second {
		t.Fatalf("decoded expiry %v differs from issued expiry %v", exp, tok.Exp)
	}

	// Expiry must decode even for an expired token: the ledger writer needs
	// it regardless of validity.
	old, err := NewAccessToken("secret", 7, "u", -120)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := TokenExpiry(old.Token); err != nil {
		t.Fatalf("expiry of expired token: %v", err)
	}
}

func TestTokenExpiryGarbage(t *testing.T) {
	if _, err := TokenExpiry("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
