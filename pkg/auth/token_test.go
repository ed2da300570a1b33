package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/packlane/packlane-backend/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:            "test-secret",
		Issuer:            "packlane-test",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testSessionConfig()
	sessionID := uuid.New()

	signed, err := MintSessionToken(cfg, time.Now(), sessionID)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := ParseSessionToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.SessionID != sessionID {
		t.Fatalf("expected session id %s, got %s", sessionID, claims.SessionID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %q, got %q", cfg.Issuer, claims.Issuer)
	}
}

func TestParseSessionTokenRejectsExpired(t *testing.T) {
	cfg := testSessionConfig()

	signed, err := MintSessionToken(cfg, time.Now().Add(-2*time.Hour), uuid.New())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if _, err := ParseSessionToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseSessionTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testSessionConfig()

	signed, err := MintSessionToken(cfg, time.Now(), uuid.New())
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseSessionToken(other, signed); err == nil {
		t.Fatal("expected issuer mismatch to be rejected")
	}
}

func TestMintSessionTokenValidation(t *testing.T) {
	cfg := testSessionConfig()

	if _, err := MintSessionToken(config.SessionConfig{}, time.Now(), uuid.New()); err == nil {
		t.Fatal("expected missing secret to error")
	}
	if _, err := MintSessionToken(cfg, time.Now(), uuid.Nil); err == nil {
		t.Fatal("expected nil session id to error")
	}
}
