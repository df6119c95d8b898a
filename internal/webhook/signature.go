package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureHeader carries the provider's HMAC of the raw body.
const SignatureHeader = "x-retell-signature"

var (
	ErrSecretNotConfigured = errors.New("webhook secret not configured")
	ErrMissingSignature    = errors.New("missing webhook signature")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
)

// VerifySignature checks signature against the hex HMAC-SHA256 of body keyed
// with secret. An optional "sha256=" prefix is accepted. It fails closed: an
// empty secret rejects every request.
func VerifySignature(secret, signature string, body []byte) error {
	if secret == "" {
		return ErrSecretNotConfigured
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}
	signature = strings.TrimPrefix(signature, "sha256=")

	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(got, computeMAC(secret, body)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the header value a sender would attach to body.
func Sign(secret string, body []byte) string {
	return hex.EncodeToString(computeMAC(secret, body))
}

// VerifyRequest wraps VerifySignature failures as KindUnauthorized.
func VerifyRequest(secret, signature string, body []byte) error {
	if err := VerifySignature(secret, signature, body); err != nil {
		return &Error{Kind: KindUnauthorized, Msg: "Invalid webhook signature", Err: err}
	}
	return nil
}

func computeMAC(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}
