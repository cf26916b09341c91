package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const signaturePrefix = "sha256="

// ErrBadSignature is the single rejection error; a mismatch is an expected
// outcome at the trust boundary, not an exceptional condition.
var ErrBadSignature = errors.New("invalid webhook signature")

// ValidateSignature checks an X-Hub-Signature-256 style header against the
// raw request body exactly as received. Reserializing parsed JSON before
// signing would change the bytes, so callers must pass the untouched body.
// Comparison is constant time.
func ValidateSignature(secret string, signatureHeader string, payload []byte) error {
	normalizedSecret := strings.TrimSpace(secret)
	if normalizedSecret == "" {
		return errors.New("webhook secret is required")
	}

	signature := strings.TrimSpace(signatureHeader)
	if signature == "" {
		return ErrBadSignature
	}
	if len(signature) <= len(signaturePrefix) || !strings.EqualFold(signature[:len(signaturePrefix)], signaturePrefix) {
		return ErrBadSignature
	}

	decoded, err := hex.DecodeString(signature[len(signaturePrefix):])
	if err != nil {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(normalizedSecret))
	mac.Write(payload)

	if !hmac.Equal(decoded, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the signature header value for a payload. Used by tests and
// by operators replaying stored payloads.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(strings.TrimSpace(secret)))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
