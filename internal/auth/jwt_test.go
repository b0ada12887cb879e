package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)

	token, err := mgr.Generate("user-1", "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := mgr.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected alice, got %s", claims.Username)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)
	other := NewJWTManager("a-completely-different-secret!!!", time.Hour)

	token, err := mgr.Generate("user-1", "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-32-bytes-long!!!", -time.Minute)

	token, err := mgr.Generate("user-1", "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := mgr.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)

	if _, err := mgr.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
