package sealer

import (
	"encoding/base64"
	"testing"
	"time"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()

	key, err := base64.StdEncoding.DecodeString("lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60=")
	if err != nil {
		t.Fatalf("failed to decode test key: %v", err)
	}

	s, err := New(key)
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}

	return s
}

func TestSealAndOpen(t *testing.T) {
	s := newTestSealer(t)

	claims := Claims{
		Subject:   "507f1f77bcf86cd799439011",
		Role:      "rentor",
		Purpose:   PurposeAccess,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	token, err := s.Seal(claims)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	opened, err := s.Open(token, PurposeAccess)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if opened.Subject != claims.Subject {
		t.Errorf("expected subject %q, got %q", claims.Subject, opened.Subject)
	}
	if opened.Role != claims.Role {
		t.Errorf("expected role %q, got %q", claims.Role, opened.Role)
	}
}

func TestOpenRejectsWrongPurpose(t *testing.T) {
	s := newTestSealer(t)

	token, err := s.Seal(Claims{
		Subject:   "507f1f77bcf86cd799439011",
		Purpose:   PurposeVerifyEmail,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if _, err := s.Open(token, PurposeAccess); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestOpenRejectsExpiredToken(t *testing.T) {
	s := newTestSealer(t)

	token, err := s.Seal(Claims{
		Subject:   "507f1f77bcf86cd799439011",
		Purpose:   PurposeAccess,
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if _, err := s.Open(token, PurposeAccess); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	s := newTestSealer(t)

	cases := []string{"", "not-a-token", "YWJjZA"}

	for _, tok := range cases {
		if _, err := s.Open(tok, PurposeAccess); err != ErrInvalidToken {
			t.Errorf("Open(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestOpenRejectsTamperedToken(t *testing.T) {
	s := newTestSealer(t)

	token, err := s.Seal(Claims{
		Subject:   "507f1f77bcf86cd799439011",
		Purpose:   PurposeAccess,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	raw, _ := base64.RawURLEncoding.DecodeString(token)
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	if _, err := s.Open(tampered, PurposeAccess); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}
