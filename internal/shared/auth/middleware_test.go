package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meridian-commerce/core/internal/shared/config"
)

func TestOriginTrusted(t *testing.T) {
	trusted := []string{"https://admin.example.com", "https://*.storefront.example.com"}

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"empty origin allowed (non-browser client)", "", true},
		{"exact match", "https://admin.example.com", true},
		{"wildcard subdomain match", "https://eu.storefront.example.com", true},
		{"wildcard scheme mismatch", "http://eu.storefront.example.com", false},
		{"unrelated origin rejected", "https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := originTrusted(trusted, tt.origin); got != tt.want {
				t.Errorf("originTrusted(%v, %q) = %v, want %v", trusted, tt.origin, got, tt.want)
			}
		})
	}
}

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestValidateSession(t *testing.T) {
	cfg := config.AuthConfig{Secret: "test-secret"}

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, "test-secret", "user-123", time.Hour)
		session, err := ValidateSession(cfg, token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if session.UserID.String() != "user-123" {
			t.Errorf("expected userId user-123, got %s", session.UserID)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		if _, err := ValidateSession(cfg, ""); err == nil {
			t.Error("expected error for an empty token")
		}
	})

	t.Run("wrong signing secret", func(t *testing.T) {
		token := signToken(t, "other-secret", "user-123", time.Hour)
		if _, err := ValidateSession(cfg, token); err == nil {
			t.Error("expected error for a token signed with the wrong secret")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, "test-secret", "user-123", -time.Hour)
		if _, err := ValidateSession(cfg, token); err == nil {
			t.Error("expected error for an expired token")
		}
	})

	t.Run("missing subject claim", func(t *testing.T) {
		token := signToken(t, "test-secret", "", time.Hour)
		if _, err := ValidateSession(cfg, token); err == nil {
			t.Error("expected error for a token with no subject claim")
		}
	})
}
