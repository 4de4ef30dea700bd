package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nvaprinting/stockroom/internal/model"
)

func cashier() model.User {
	return model.User{ID: 3, Username: "ana", Role: model.RoleCashier}
}

func TestIssueAndValidate(t *testing.T) {
	tokens := NewTokens("test-secret-key")

	token, expires, err := tokens.Issue(cashier())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != 3 {
		t.Errorf("expected user_id 3, got %d", claims.UserID)
	}
	if claims.Username != "ana" {
		t.Errorf("expected username 'ana', got %q", claims.Username)
	}
	if claims.Role != model.RoleCashier {
		t.Errorf("expected role 'cashier', got %q", claims.Role)
	}
	if claims.Issuer != Issuer {
		t.Errorf("expected issuer %q, got %q", Issuer, claims.Issuer)
	}
	if !claims.ExpiresAt.Time.Equal(expires.Truncate(time.Second)) {
		t.Errorf("expected expiry %v, got %v", expires, claims.ExpiresAt.Time)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	token, _, _ := NewTokens("secret1").Issue(cashier())

	if _, err := NewTokens("secret2").Validate(token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateGarbage(t *testing.T) {
	if _, err := NewTokens("secret").Validate("not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateExpired(t *testing.T) {
	issued := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	issuer := NewTokens("secret", WithClock(func() time.Time { return issued }), WithExpiry(time.Hour))
	token, _, err := issuer.Issue(cashier())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	later := NewTokens("secret", WithClock(func() time.Time { return issued.Add(2 * time.Hour) }))
	_, err = later.Validate(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}

	if _, err := issuer.Validate(token); err != nil {
		t.Errorf("expected token valid at issue time, got %v", err)
	}
}

func TestIssueUnknownRole(t *testing.T) {
	u := cashier()
	u.Role = "user"
	if _, _, err := NewTokens("secret").Issue(u); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}

func TestValidateRejectsForeignIssuer(t *testing.T) {
	claims := Claims{
		Username: "ana",
		Role:     model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewTokens("secret").Validate(token); err == nil {
		t.Error("expected error for foreign issuer")
	}
}
