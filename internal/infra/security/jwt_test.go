package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSigningSecret = "unit-test-signing-secret-0123456789abcdef"

func newTestCodec(t *testing.T, now func() time.Time) *TokenCodec {
	t.Helper()

	codec, err := NewTokenCodec(TokenCodecConfig{
		Secret: testSigningSecret,
		Issuer: "console-auth-test",
		TTL:    30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("new token codec: %v", err)
	}
	if now != nil {
		codec.WithClock(now)
	}
	return codec
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := newTestCodec(t, nil)

	raw, err := codec.Issue("alice", true)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := codec.Parse(raw)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("expected subject alice, got %q", claims.Subject)
	}
	if !claims.GlobalAdmin {
		t.Fatalf("expected global admin flag to survive the round trip")
	}
}

func TestTokenCodecRejectsEmptySubject(t *testing.T) {
	codec := newTestCodec(t, nil)

	if _, err := codec.Issue("  ", false); err == nil {
		t.Fatalf("expected error for blank subject")
	}
}

func TestTokenCodecExpiry(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, func() time.Time { return current })

	raw, err := codec.IssueWithTTL("alice", false, time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := codec.Parse(raw); err != nil {
		t.Fatalf("expected fresh token to parse: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := codec.Parse(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenCodecLeewayToleratesSkew(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	codec, err := NewTokenCodec(TokenCodecConfig{
		Secret: testSigningSecret,
		TTL:    time.Minute,
		Leeway: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("new token codec: %v", err)
	}
	codec.WithClock(func() time.Time { return current })

	raw, err := codec.Issue("alice", false)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	current = current.Add(time.Minute + 15*time.Second)
	if _, err := codec.Parse(raw); err != nil {
		t.Fatalf("expected token inside leeway to parse: %v", err)
	}

	current = current.Add(time.Minute)
	if _, err := codec.Parse(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired beyond leeway, got %v", err)
	}
}

func TestTokenCodecTamperedSignature(t *testing.T) {
	codec := newTestCodec(t, nil)

	raw, err := codec.Issue("alice", false)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := codec.Parse(tampered); !errors.Is(err, ErrTokenSignatureInvalid) {
		t.Fatalf("expected ErrTokenSignatureInvalid, got %v", err)
	}
}

func TestTokenCodecForeignKey(t *testing.T) {
	issuing := newTestCodec(t, nil)

	verifying, err := NewTokenCodec(TokenCodecConfig{
		Secret: "another-signing-secret-0123456789abcdef",
		Issuer: "console-auth-test",
	})
	if err != nil {
		t.Fatalf("new token codec: %v", err)
	}

	raw, err := issuing.Issue("alice", false)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := verifying.Parse(raw); !errors.Is(err, ErrTokenSignatureInvalid) {
		t.Fatalf("expected ErrTokenSignatureInvalid, got %v", err)
	}
}

func TestTokenCodecMalformedInput(t *testing.T) {
	codec := newTestCodec(t, nil)

	for _, raw := range []string{"", "  ", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := codec.Parse(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", raw, err)
		}
	}
}

func TestNewTokenCodecValidatesSecret(t *testing.T) {
	if _, err := NewTokenCodec(TokenCodecConfig{Secret: ""}); err == nil {
		t.Fatalf("expected error for missing secret")
	}
	if _, err := NewTokenCodec(TokenCodecConfig{Secret: "short"}); err == nil {
		t.Fatalf("expected error for short secret")
	}
}
