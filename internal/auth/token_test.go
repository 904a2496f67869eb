package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret")

	token, err := m.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	userID, ok := m.Verify(token)
	if !ok || userID != "user-123" {
		t.Errorf("expected user-123, got %q (ok=%v)", userID, ok)
	}
}

func TestTokenExpiresAfterSevenDays(t *testing.T) {
	m := NewTokenManager("test-secret")
	issued := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = func() time.Time { return issued.Add(TokenTTL - time.Minute) }
	if _, ok := m.Verify(token); !ok {
		t.Error("token should still be valid just before expiry")
	}

	m.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	if _, ok := m.Verify(token); ok {
		t.Error("token should be rejected after expiry")
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	m := NewTokenManager("test-secret")
	token, _ := m.Issue("user-123")

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}

	// Swap the payload for one naming another user.
	other, _ := m.Issue("user-456")
	forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]
	if _, ok := m.Verify(forged); ok {
		t.Error("forged payload should fail signature check")
	}

	if _, ok := NewTokenManager("other-secret").Verify(token); ok {
		t.Error("token signed with another key should fail")
	}

	for _, bad := range []string{"", "garbage", "a.b.c", token + "x"} {
		if _, ok := m.Verify(bad); ok {
			t.Errorf("Verify(%q) should fail", bad)
		}
	}
}

func TestTokenRejectsOtherAlgorithmsAndMissingClaims(t *testing.T) {
	m := NewTokenManager("test-secret")
	now := time.Now()

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, ok := m.Verify(none); ok {
		t.Error("alg=none must be rejected")
	}

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	if _, ok := m.Verify(hs512); ok {
		t.Error("HS512 must be rejected")
	}

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	if _, ok := m.Verify(noSubject); ok {
		t.Error("token without subject must be rejected")
	}

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-123",
	}).SignedString([]byte("test-secret"))
	if _, ok := m.Verify(noExpiry); ok {
		t.Error("token without expiry must be rejected")
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	if _, err := NewTokenManager("s").Issue(""); err == nil {
		t.Error("expected error for empty subject")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("expected mismatch")
	}
}
