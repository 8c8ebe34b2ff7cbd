package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	signed, expiresAt, err := GenerateToken("u1", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiry %v is not in the future", expiresAt)
	}

	parsed, err := jwt.ParseWithClaims(signed, new(Claims), func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claims.Subject != "u1" {
		t.Errorf("subject = %q, want u1", claims.Subject)
	}
}

func TestGenerateTokenWrongSecretFails(t *testing.T) {
	signed, _, err := GenerateToken("u1", "right", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	_, err = jwt.ParseWithClaims(signed, new(Claims), func(token *jwt.Token) (any, error) {
		return []byte("wrong"), nil
	})
	if err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}
