package payload

import (
	"fmt"
	"strings"
)

// Retell webhook event types.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalysis = "call_analysis"
	EventCallAnalyzed = "call_analyzed"
)

// Payload is the typed form of a webhook body that passed Validate. Only
// fields the handler reads are carried; transcripts, metadata and phone
// numbers are checked but read from the raw Node.
type Payload struct {
	Event        string
	Call         Call
	Analysis     *Analysis
	CallDuration *float64
	Duration     *float64
	EndReason    string
}

type Call struct {
	CallID         string
	AgentID        string
	Direction      string
	StartTimestamp *float64
	EndTimestamp   *float64
	Duration       *float64
	CallDuration   *float64
}

type Analysis struct {
	Sentiment string
}

// Issue is one schema violation.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in a body.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.Path + ": " + is.Message
	}
	return "invalid webhook payload: " + strings.Join(parts, "; ")
}

// Validate checks the raw body against the declared webhook shape and returns
// the typed payload. Unknown fields are ignored.
func Validate(root Node) (*Payload, error) {
	v := &validator{}
	if !root.IsObject() {
		v.fail("", "expected object")
		return nil, v.err()
	}

	p := &Payload{
		Event:        v.enum(root.Get("event"), "event", EventCallEnded, EventCallAnalysis, EventCallStarted),
		CallDuration: v.num(root.Get("call_duration"), "call_duration"),
		Duration:     v.num(root.Get("duration"), "duration"),
		EndReason:    v.str(root.Get("end_reason"), "end_reason", false),
	}

	call := root.Get("call")
	if v.object(call, "call", true) {
		p.Call = Call{
			CallID:         v.str(call.Get("call_id"), "call.call_id", true),
			AgentID:        v.str(call.Get("agent_id"), "call.agent_id", false),
			Direction:      v.enum(call.Get("direction"), "call.direction", "inbound", "outbound"),
			StartTimestamp: v.num(call.Get("start_timestamp"), "call.start_timestamp"),
			EndTimestamp:   v.num(call.Get("end_timestamp"), "call.end_timestamp"),
			Duration:       v.num(call.Get("duration"), "call.duration"),
			CallDuration:   v.num(call.Get("call_duration"), "call.call_duration"),
		}
		v.str(call.Get("from_number"), "call.from_number", false)
		v.str(call.Get("to_number"), "call.to_number", false)
		v.object(call.Get("metadata"), "call.metadata", false)
	}

	if tr := root.Get("transcript"); tr.Exists() {
		items, ok := tr.Array()
		if !ok {
			v.fail("transcript", "expected array")
		}
		for i, it := range items {
			path := fmt.Sprintf("transcript[%d]", i)
			if !v.object(it, path, true) {
				continue
			}
			v.enum(it.Get("role"), path+".role", "agent", "user", "assistant")
			v.str(it.Get("content"), path+".content", false)
			v.str(it.Get("text"), path+".text", false)
			v.num(it.Get("timestamp"), path+".timestamp")
		}
	}

	if te := root.Get("transcript_events"); te.Exists() {
		if _, ok := te.Array(); !ok {
			v.fail("transcript_events", "expected array")
		}
	}

	if an := root.Get("analysis"); v.object(an, "analysis", false) {
		v.str(an.Get("summary"), "analysis.summary", false)
		p.Analysis = &Analysis{
			Sentiment: v.str(an.Get("sentiment"), "analysis.sentiment", false),
		}
	}

	if err := v.err(); err != nil {
		return nil, err
	}
	return p, nil
}

type validator struct {
	issues []Issue
}

func (v *validator) fail(path, msg string) {
	v.issues = append(v.issues, Issue{Path: path, Message: msg})
}

func (v *validator) err() error {
	if len(v.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: v.issues}
}

func (v *validator) str(n Node, path string, required bool) string {
	if !n.Exists() {
		if required {
			v.fail(path, "required")
		}
		return ""
	}
	s, ok := n.Str()
	if !ok {
		v.fail(path, "expected string, received "+kind(n))
	}
	return s
}

func (v *validator) num(n Node, path string) *float64 {
	if !n.Exists() {
		return nil
	}
	f, ok := n.Number()
	if !ok {
		v.fail(path, "expected number, received "+kind(n))
		return nil
	}
	return &f
}

func (v *validator) enum(n Node, path string, allowed ...string) string {
	if !n.Exists() {
		return ""
	}
	s, ok := n.Str()
	if !ok {
		v.fail(path, "expected string, received "+kind(n))
		return ""
	}
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	v.fail(path, fmt.Sprintf("invalid enum value %q, expected one of %s", s, strings.Join(allowed, "|")))
	return ""
}

func (v *validator) object(n Node, path string, required bool) bool {
	if !n.Exists() {
		if required {
			v.fail(path, "required")
		}
		return false
	}
	if !n.IsObject() {
		v.fail(path, "expected object, received "+kind(n))
		return false
	}
	return true
}

func kind(n Node) string {
	switch n.Value().(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := n.Number(); ok {
		return "number"
	}
	return fmt.Sprintf("%T", n.Value())
}
