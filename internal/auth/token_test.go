package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/danharte/stencil/internal/infrastructure/config"
)

func testTokenService() *TokenService {
	return NewTokenService(config.JWTConfig{
		Secret:   testSecret,
		Issuer:   "stencil",
		Audience: "stencil",
		TTL:      3600,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testTokenService()

	token, expiresIn, err := svc.Issue(424242)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if expiresIn != 3600 {
		t.Errorf("expiresIn = %d, want 3600", expiresIn)
	}

	subject, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if subject != 424242 {
		t.Errorf("subject = %d, want 424242", subject)
	}
}

func TestTokenExpired(t *testing.T) {
	svc := testTokenService()

	token, err := svc.issue(1, -time.Second)
	if err != nil {
		t.Fatalf("issue() error = %v", err)
	}

	_, err = svc.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
	}
	// Expiry is still an identity failure overall.
	if errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expired token should not also be ErrTokenInvalid")
	}
}

func TestTokenTampered(t *testing.T) {
	svc := testTokenService()

	token, _, err := svc.Issue(7)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Flip a character near the end of the signature.
	raw := []byte(token)
	last := len(raw) - 2
	if raw[last] == 'A' {
		raw[last] = 'B'
	} else {
		raw[last] = 'A'
	}

	_, err = svc.Verify(string(raw))
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Verify() tampered error = %v, want ErrSignatureInvalid", err)
	}
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("signature failure should still be ErrTokenInvalid, got %v", err)
	}
}

func TestTokenWrongIssuerOrAudience(t *testing.T) {
	svc := testTokenService()

	other := NewTokenService(config.JWTConfig{
		Secret:   testSecret,
		Issuer:   "someone-else",
		Audience: "stencil",
		TTL:      3600,
	})
	token, _, err := other.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() foreign issuer error = %v, want ErrTokenInvalid", err)
	}

	foreignAudience := NewTokenService(config.JWTConfig{
		Secret:   testSecret,
		Issuer:   "stencil",
		Audience: "another-app",
		TTL:      3600,
	})
	token, _, err = foreignAudience.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() foreign audience error = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	svc := testTokenService()

	for _, tok := range []string{"", "not-a-token", "a.b.c", "Bearer xyz"} {
		if _, err := svc.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify(%q) error = %v, want ErrTokenInvalid", tok, err)
		}
	}
}

func TestTokenWrongSecret(t *testing.T) {
	svc := testTokenService()

	forger := NewTokenService(config.JWTConfig{
		Secret:   "another-secret-another-secret-another!",
		Issuer:   "stencil",
		Audience: "stencil",
		TTL:      3600,
	})
	token, _, err := forger.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := svc.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() forged token error = %v, want ErrTokenInvalid", err)
	}
}
