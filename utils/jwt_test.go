package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", "64b7f0c2a1b2c3d4e5f60718", "admin", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseToken("secret", token, time.Now())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "64b7f0c2a1b2c3d4e5f60718" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	valid, _ := GenerateToken("secret", "u1", "user", time.Hour, time.Now())
	expired, _ := GenerateToken("secret", "u1", "user", time.Hour, time.Now().Add(-2*time.Hour))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"empty", "secret", ""},
		{"wrong secret", "other", valid},
		{"expired", "secret", expired},
		{"alg none", "secret", none},
		{"garbage", "secret", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.secret, tt.token, time.Now()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseTokenUsesGivenClock(t *testing.T) {
	issued := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	token, err := GenerateToken("secret", "u1", "user", time.Hour, issued)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseToken("secret", token, issued.Add(30*time.Minute)); err != nil {
		t.Fatalf("expected token valid within its lifetime, got %v", err)
	}
	if _, err := ParseToken("secret", token, issued.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected token expired after its lifetime")
	}
}
