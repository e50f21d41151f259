package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, 24*time.Hour)

	access, refresh, err := m.Generate(42)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	id, err := m.Validate(access, AccessToken)
	if err != nil {
		t.Fatalf("Validate(access) failed: %v", err)
	}
	if id != 42 {
		t.Errorf("user id = %d, want 42", id)
	}

	if _, err := m.Validate(refresh, AccessToken); !errors.Is(err, ErrInvalidTokenType) {
		t.Errorf("refresh token used as access: got %v, want ErrInvalidTokenType", err)
	}
	if id, err := m.Validate(refresh, RefreshToken); err != nil || id != 42 {
		t.Errorf("Validate(refresh) = %d, %v", id, err)
	}
}

func TestTokenRejections(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, time.Hour)
	other := NewTokenManager("other-secret", time.Hour, time.Hour)

	foreign, _, err := other.Generate(1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := m.Validate(foreign, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with another secret: got %v", err)
	}

	expired := NewTokenManager("test-secret", time.Hour, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Generate(1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := m.Validate(old, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v", err)
	}

	if _, err := m.Validate("not-a-jwt", AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: got %v", err)
	}
}

func TestPasswords(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("HashPassword(short) error = %v, want ErrWeakPassword", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := CheckPassword(hash, "battery staple"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) = %v, want ErrInvalidCredentials", err)
	}
}
