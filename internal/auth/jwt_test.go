package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// CONSTRUCTION
// =========================================================================

func TestNewTokenService_SecretLength(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("NewTokenService() accepted a secret shorter than 16 chars")
	}
	ts, err := NewTokenService("this-is-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() error for a 16 char secret: %v", err)
	}
	if ts.TTL() != DefaultSessionTTL {
		t.Errorf("TTL() = %v, want %v", ts.TTL(), DefaultSessionTTL)
	}
}

// =========================================================================
// GENERATE / VALIDATE
// =========================================================================

func TestGenerate_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if n := strings.Count(token, "."); n != 2 {
		t.Errorf("token has %d dots, want 2", n)
	}
}

func TestGenerate_RequiresSubject(t *testing.T) {
	ts := newTestTokenService(t)
	if _, err := ts.Generate(""); err == nil {
		t.Error("Generate(\"\") should fail")
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-abc")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != "user-abc" {
		t.Errorf("Validate() = %q, want %q", got, "user-abc")
	}
}

func TestValidate_Expired(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration("user-123", -time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}
	if _, err := ts.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidate_ExpiresAfterTTL(t *testing.T) {
	ts := newTestTokenService(t)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return start }

	token, err := ts.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	ts.now = func() time.Time { return start.Add(DefaultSessionTTL - time.Minute) }
	if _, err := ts.Validate(token); err != nil {
		t.Errorf("Validate() just before expiry error = %v", err)
	}

	ts.now = func() time.Time { return start.Add(DefaultSessionTTL + time.Minute) }
	if _, err := ts.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate() after expiry error = %v, want ErrTokenExpired", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	good, _ := ts.Generate("user-123")

	other, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!")
	foreign, _ := other.Generate("user-123")

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-123",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(ts.secret)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-123",
		Issuer:  Issuer,
	}).SignedString(ts.secret)

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-123",
		Issuer:    Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt.token"},
		{"tampered signature", good[:len(good)-3] + "xxx"},
		{"different secret", foreign},
		{"wrong issuer", wrongIssuer},
		{"no expiry", noExpiry},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Validate(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Validate() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
