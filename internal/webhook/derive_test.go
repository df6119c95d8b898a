package webhook

import (
	"testing"

	"github.com/MikeSquared-Agency/interviews/internal/payload"
)

func decodeRoot(t *testing.T, body string) (payload.Node, *payload.Payload) {
	t.Helper()
	root, err := payload.Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, _ := payload.Validate(root)
	return root, p
}

func TestDeriveDuration(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"call_duration", `{"event":"call_ended","call":{"call_id":"a"},"call_duration":30}`, 30},
		{"floored", `{"event":"call_ended","call":{"call_id":"a"},"call_duration":30.9}`, 30},
		{"zero falls through", `{"event":"call_ended","call":{"call_id":"a","duration":12},"call_duration":0}`, 12},
		{"call.call_duration", `{"event":"call_ended","call":{"call_id":"a","call_duration":7}}`, 7},
		{"top-level duration", `{"event":"call_ended","call":{"call_id":"a"},"duration":9}`, 9},
		{"numeric string", `{"event":"call_ended","call":{"call_id":"a","duration":"15"}}`, 15},
		{"timestamps", `{"event":"call_ended","call":{"call_id":"a","start_timestamp":1000,"end_timestamp":5500}}`, 4},
		{"negative span clamps", `{"event":"call_ended","call":{"call_id":"a","start_timestamp":9000,"end_timestamp":1000}}`, 0},
		{"only start", `{"event":"call_ended","call":{"call_id":"a","start_timestamp":1000}}`, 0},
		{"nothing", `{"event":"call_ended","call":{"call_id":"a"}}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, p := decodeRoot(t, tt.body)
			if got := deriveDuration(p, root); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestDeriveDuration_WithoutValidatedPayload(t *testing.T) {
	root, _ := decodeRoot(t, `{"event":"call_analyzed","call":{"call_id":"a"},"call_duration":"21"}`)
	if got := deriveDuration(nil, root); got != 21 {
		t.Errorf("expected 21, got %d", got)
	}
}

func TestIsCompleted(t *testing.T) {
	tests := map[string]bool{
		"":             true,
		"completed":    true,
		"user_hangup":  true,
		"agent_hangup": true,
		"error":        false,
		"failed":       false,
		"voicemail":    true,
	}
	for reason, want := range tests {
		if got := isCompleted(reason); got != want {
			t.Errorf("isCompleted(%q) = %v, want %v", reason, got, want)
		}
	}
}

func TestEndReason_RawFallback(t *testing.T) {
	root, _ := decodeRoot(t, `{"event":"call_analyzed","end_reason":"error"}`)
	if got := endReason(nil, root); got != "error" {
		t.Errorf("expected error, got %q", got)
	}
}

func TestParticipantID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *string
	}{
		{"string", `{"call":{"metadata":{"participant_id":"p-9"}}}`, strPtr("p-9")},
		{"number", `{"call":{"metadata":{"participant_id":42}}}`, strPtr("42")},
		{"absent", `{"call":{"metadata":{}}}`, nil},
		{"null", `{"call":{"metadata":{"participant_id":null}}}`, nil},
		{"no metadata", `{"call":{}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, _ := decodeRoot(t, tt.body)
			got := participantID(root)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("expected nil, got %q", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("expected %q, got %v", *tt.want, got)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
