package transcript

import (
	"strings"

	"github.com/MikeSquared-Agency/interviews/internal/payload"
)

// locations lists where a turn array may live in a webhook body, highest
// priority first. The provider has moved the transcript around between
// schema versions; a new shape is a new row here.
var locations = [][]string{
	{"transcript_object"},
	{"call", "transcript_object"},
	{"call", "transcript"},
	{"transcript"},
	{"transcript_events"},
	{"analysis", "transcript"},
	{"transcript_items"},
	{"transcript_segments"},
	{"utterances"},
}

// Per-element field candidates, checked in order.
var (
	roleFields = []string{"role", "speaker"}
	textFields = []string{"content", "text", "message", "transcript", "words"}
	timeFields = []string{"timestamp", "time", "created_at", "start_time"}
	agentRoles = []string{"assistant", "agent"}
)

// Extract finds the first recognized turn array in the body and normalizes
// it. It never fails: a body with no recognizable transcript yields an empty
// slice. Once a location holding an array is found, no later location is
// consulted, even if every element of that array is dropped.
func Extract(root payload.Node) []Utterance {
	_, items, ok := locate(root)
	if !ok {
		return nil
	}

	out := make([]Utterance, 0, len(items))
	for _, it := range items {
		if u, ok := normalize(it); ok {
			out = append(out, u)
		}
	}
	return out
}

// Source names the location Extract would read from, e.g. "call.transcript",
// or "" when none is present.
func Source(root payload.Node) string {
	path, _, ok := locate(root)
	if !ok {
		return ""
	}
	return strings.Join(path, ".")
}

func locate(root payload.Node) ([]string, []payload.Node, bool) {
	for _, path := range locations {
		if items, ok := root.Path(path...).Array(); ok {
			return path, items, true
		}
	}
	return nil, nil, false
}

func normalize(item payload.Node) (Utterance, bool) {
	text := strings.TrimSpace(textOf(item))
	if text == "" {
		return Utterance{}, false
	}
	return Utterance{
		Speaker:    speakerOf(item),
		Text:       text,
		OccurredAt: occurredAt(item),
	}, true
}

func speakerOf(item payload.Node) Speaker {
	for _, f := range roleFields {
		role, ok := item.Get(f).Str()
		if !ok {
			continue
		}
		role = strings.TrimSpace(role)
		for _, a := range agentRoles {
			if strings.EqualFold(role, a) {
				return SpeakerAgent
			}
		}
		return SpeakerUser
	}
	return SpeakerUser
}

func textOf(item payload.Node) string {
	hasField := false
	for _, f := range textFields {
		n := item.Get(f)
		if !n.Exists() {
			continue
		}
		hasField = true
		if s, ok := n.Str(); ok && s != "" {
			return s
		}
	}
	// A content field that is empty, null or not a string means an empty turn.
	if hasField {
		return ""
	}
	// No content field at all: keep the element's own rendering (bare
	// strings, or the object as JSON) rather than lose the turn.
	return item.Render()
}

func occurredAt(item payload.Node) *float64 {
	for _, f := range timeFields {
		if ts, ok := item.Get(f).NumberLike(); ok {
			return &ts
		}
	}
	return nil
}
