package jwt

import (
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims gojwt.Claims) string {
	t.Helper()

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestNewInspectorRejectsBadSkew(t *testing.T) {
	if _, err := NewInspector(Config{ExpirySkew: -time.Second}); err == nil {
		t.Fatal("expected error for negative skew")
	}
	if _, err := NewInspector(Config{ExpirySkew: 10 * time.Minute}); err == nil {
		t.Fatal("expected error for oversized skew")
	}
}

func TestInspectValidToken(t *testing.T) {
	now := time.Now()
	inspector, err := NewInspector(Config{Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	token := signToken(t, AccessClaims{
		Email: "a@b.c",
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	if got := inspector.Inspect(token); got != StatusValid {
		t.Fatalf("status = %d, want StatusValid", got)
	}

	claims, err := inspector.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "a@b.c" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestInspectExpiredToken(t *testing.T) {
	now := time.Now()
	inspector, err := NewInspector(Config{Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	token := signToken(t, gojwt.RegisteredClaims{
		ExpiresAt: gojwt.NewNumericDate(now.Add(-time.Minute)),
	})

	if got := inspector.Inspect(token); got != StatusExpired {
		t.Fatalf("status = %d, want StatusExpired", got)
	}
}

func TestInspectSkewTreatsNearExpiryAsExpired(t *testing.T) {
	now := time.Now()
	inspector, err := NewInspector(Config{
		ExpirySkew: time.Minute,
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	// Expires in 30s, skew is 60s: already stale.
	token := signToken(t, gojwt.RegisteredClaims{
		ExpiresAt: gojwt.NewNumericDate(now.Add(30 * time.Second)),
	})

	if got := inspector.Inspect(token); got != StatusExpired {
		t.Fatalf("status = %d, want StatusExpired under skew", got)
	}
}

func TestInspectTokenWithoutExpiry(t *testing.T) {
	inspector, err := NewInspector(Config{})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	token := signToken(t, gojwt.RegisteredClaims{Subject: "user-1"})

	if got := inspector.Inspect(token); got != StatusMalformed {
		t.Fatalf("status = %d, want StatusMalformed for missing exp", got)
	}
	if _, err := inspector.ExpiresAt(token); !errors.Is(err, ErrMissingExpiry) {
		t.Fatalf("ExpiresAt error = %v, want ErrMissingExpiry", err)
	}
}

func TestInspectMalformedToken(t *testing.T) {
	inspector, err := NewInspector(Config{})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	for _, token := range []string{
		"",
		"   ",
		"not-a-jwt",
		"a.b",
		"a.!!!.c",
		"eyJhbGciOiJIUzI1NiJ9.%%%.sig",
	} {
		if got := inspector.Inspect(token); got != StatusMalformed {
			t.Fatalf("Inspect(%q) = %d, want StatusMalformed", token, got)
		}
		if _, err := inspector.Decode(token); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Decode(%q) error = %v, want ErrMalformed", token, err)
		}
	}
}

func TestExpiresAtRoundTrip(t *testing.T) {
	inspector, err := NewInspector(Config{})
	if err != nil {
		t.Fatalf("NewInspector: %v", err)
	}

	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token := signToken(t, gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(exp)})

	got, err := inspector.ExpiresAt(token)
	if err != nil {
		t.Fatalf("ExpiresAt: %v", err)
	}
	if !got.Equal(exp) {
		t.Fatalf("ExpiresAt = %v, want %v", got, exp)
	}
}
