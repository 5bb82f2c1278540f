package push

import (
	"encoding/base64"
	"strings"
	"testing"
	"unicode/utf8"

	webpush "github.com/SherClockHolmes/webpush-go"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	if pub == "" {
		t.Error("expected non-empty public key")
	}
	if priv == "" {
		t.Error("expected non-empty private key")
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

func TestNotificationOptions(t *testing.T) {
	svc := NewService("pub", "priv")

	reminder := svc.options(Payload{Tag: "appointment-7"})
	if reminder.Urgency != webpush.UrgencyHigh {
		t.Errorf("reminder urgency = %q, want high", reminder.Urgency)
	}
	if reminder.TTL != 1800 {
		t.Errorf("reminder TTL = %d, want 1800", reminder.TTL)
	}

	message := svc.options(Payload{Tag: "new-message"})
	if message.Urgency != webpush.UrgencyNormal {
		t.Errorf("message urgency = %q, want normal", message.Urgency)
	}
	if message.TTL != 86400 {
		t.Errorf("message TTL = %d, want 86400", message.TTL)
	}
}

func TestTruncatePreview(t *testing.T) {
	if got := truncatePreview("short", 80); got != "short" {
		t.Errorf("short preview changed: %q", got)
	}

	long := strings.Repeat("a", 100)
	got := truncatePreview(long, 80)
	if len([]rune(got)) != 80 {
		t.Errorf("truncated length = %d runes, want 80", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated preview missing ellipsis: %q", got)
	}

	// Multi-byte characters must never be split mid-sequence.
	accented := strings.Repeat("é", 100)
	got = truncatePreview(accented, 80)
	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8: %q", got)
	}
	if len([]rune(got)) != 80 {
		t.Errorf("truncated length = %d runes, want 80", len([]rune(got)))
	}
}
