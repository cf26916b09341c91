package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSignatureRoundTrip(t *testing.T) {
	secret := "super-secret"
	payload := []byte(`{"action":"created","issue":{"number":7}}`)

	if err := ValidateSignature(secret, Sign(secret, payload), payload); err != nil {
		t.Fatalf("ValidateSignature() error = %v", err)
	}
}

func TestValidateSignatureRejectsMutatedPayload(t *testing.T) {
	secret := "super-secret"
	payload := []byte(`{"action":"created"}`)
	header := Sign(secret, payload)

	mutated := []byte(`{"action":"created"}`)
	mutated[2] ^= 0x01

	if err := ValidateSignature(secret, header, mutated); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("ValidateSignature() error = %v, want ErrBadSignature", err)
	}
}

func TestValidateSignatureRejectsMutatedSignature(t *testing.T) {
	secret := "super-secret"
	payload := []byte(`{"action":"created"}`)
	header := Sign(secret, payload)

	// Flip one hex digit after the prefix.
	corrupted := []byte(header)
	if corrupted[len(signaturePrefix)] == 'a' {
		corrupted[len(signaturePrefix)] = 'b'
	} else {
		corrupted[len(signaturePrefix)] = 'a'
	}

	if err := ValidateSignature(secret, string(corrupted), payload); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("ValidateSignature() error = %v, want ErrBadSignature", err)
	}
}

func TestValidateSignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"action":"created"}`)
	header := Sign("secret-a", payload)

	if err := ValidateSignature("secret-b", header, payload); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("ValidateSignature() error = %v, want ErrBadSignature", err)
	}
}

func TestValidateSignatureRejectsMalformedHeader(t *testing.T) {
	payload := []byte(`{}`)

	for _, header := range []string{"", "sha256=", "sha1=deadbeef", "sha256=zz-not-hex"} {
		if err := ValidateSignature("secret", header, payload); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("ValidateSignature(header=%q) error = %v, want ErrBadSignature", header, err)
		}
	}
}

func TestValidateSignatureRequiresSecret(t *testing.T) {
	payload := []byte(`{}`)
	err := ValidateSignature("  ", Sign("x", payload), payload)
	if err == nil || errors.Is(err, ErrBadSignature) {
		t.Fatalf("ValidateSignature() error = %v, want configuration error", err)
	}
	if !strings.Contains(err.Error(), "secret") {
		t.Fatalf("error = %v, want secret requirement", err)
	}
}
