package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuer_MintAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	token, expiresIn, err := issuer.Mint("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expiresIn != 30*24*3600 {
		t.Errorf("expected expires_in %d, got %d", 30*24*3600, expiresIn)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected subject user-1, got %q", claims.UserID)
	}
	if claims.ExpiresAt == nil {
		t.Fatal("expected expiry claim")
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 29*24*time.Hour || remaining > 30*24*time.Hour {
		t.Errorf("expiry not ~30 days out: %v", remaining)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	token, err := issuer.MintExpiring("user-1", -time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = issuer.Verify(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("secret-a").Mint("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = NewTokenIssuer("secret-b").Verify(token)
	if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		t.Errorf("expected ErrTokenSignatureInvalid, got %v", err)
	}
}

func TestTokenIssuer_Garbage(t *testing.T) {
	_, err := NewTokenIssuer("s").Verify("not-a-token")
	if err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestSharedSecretChecker(t *testing.T) {
	checker := NewSharedSecretChecker("the-secret")
	if !checker.Check("the-secret") {
		t.Error("expected matching key to pass")
	}
	if checker.Check("wrong") {
		t.Error("expected mismatched key to fail")
	}
	if checker.Check("") {
		t.Error("expected empty key to fail")
	}
}
