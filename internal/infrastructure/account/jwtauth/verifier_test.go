package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/riskibarqy/matchday-live/internal/domain/user"
	"github.com/riskibarqy/matchday-live/internal/usecase"
)

const testSecret = "matchday-test-secret-key"

func TestVerifier_RoundTrip(t *testing.T) {
	t.Parallel()

	v, err := NewVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewVerifier error: %v", err)
	}

	token, err := v.Issue(user.Principal{UserID: "u-1", Email: "ops@example.com", Role: user.RoleOperator}, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	principal, err := v.VerifyAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyAccessToken error: %v", err)
	}
	if principal.UserID != "u-1" || !principal.CanOperate() {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	v, _ := NewVerifier(testSecret)
	other, _ := NewVerifier("another-secret-of-enough-length")

	expired := *v
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expiredToken, _ := expired.Issue(user.Principal{UserID: "u-1"}, time.Hour)
	foreignToken, _ := other.Issue(user.Principal{UserID: "u-1"}, time.Hour)
	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	noSubject, _ := v.Issue(user.Principal{}, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "expired", token: expiredToken},
		{name: "wrong secret", token: foreignToken},
		{name: "alg none", token: noneToken},
		{name: "no subject", token: noSubject},
	}
	for _, tt := range tests {
		if _, err := v.VerifyAccessToken(context.Background(), tt.token); !errors.Is(err, usecase.ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", tt.name, err)
		}
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewVerifier("short"); err == nil {
		t.Fatalf("expected error for short secret")
	}
}
