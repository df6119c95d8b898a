package webhook

import (
	"errors"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"call_ended","call":{"call_id":"abc"}}`)
	secret := "s3cret"
	valid := Sign(secret, body)

	tests := []struct {
		name    string
		secret  string
		sig     string
		body    []byte
		wantErr error
	}{
		{"valid", secret, valid, body, nil},
		{"valid with prefix", secret, "sha256=" + valid, body, nil},
		{"valid with whitespace", secret, "  " + valid + "\n", body, nil},
		{"no secret configured", "", valid, body, ErrSecretNotConfigured},
		{"missing signature", secret, "", body, ErrMissingSignature},
		{"not hex", secret, "zzzz", body, ErrInvalidSignature},
		{"wrong secret", "other", valid, body, ErrInvalidSignature},
		{"tampered body", secret, valid, []byte(`{"event":"call_ended","call":{"call_id":"xyz"}}`), ErrInvalidSignature},
		{"truncated", secret, valid[:len(valid)-2], body, ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.secret, tt.sig, tt.body)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestVerifyRequest_Unauthorized(t *testing.T) {
	err := VerifyRequest("s3cret", "deadbeef", []byte("{}"))
	var we *Error
	if !errors.As(err, &we) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if we.Kind != KindUnauthorized {
		t.Errorf("expected unauthorized, got %s", we.Kind)
	}
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected wrapped ErrInvalidSignature, got %v", err)
	}

	if err := VerifyRequest("s3cret", Sign("s3cret", []byte("{}")), []byte("{}")); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}

func TestSign_Deterministic(t *testing.T) {
	a := Sign("k", []byte("body"))
	b := Sign("k", []byte("body"))
	if a != b {
		t.Errorf("expected deterministic signature, got %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}
