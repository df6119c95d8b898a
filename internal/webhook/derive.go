package webhook

import (
	"math"

	"github.com/MikeSquared-Agency/interviews/internal/payload"
)

// durationFields are the raw-body duration candidates, highest priority first.
var durationFields = [][]string{
	{"call_duration"},
	{"call", "duration"},
	{"call", "call_duration"},
	{"duration"},
}

// deriveDuration returns the call length in whole seconds. A candidate counts
// only when it is a positive number; the start/end timestamps (milliseconds)
// are the last resort. Validated values are used when the body passed the
// schema, the raw body otherwise (it may carry numeric strings).
func deriveDuration(p *payload.Payload, root payload.Node) int {
	if p != nil {
		for _, d := range []*float64{p.CallDuration, p.Call.Duration, p.Call.CallDuration, p.Duration} {
			if d != nil && *d > 0 {
				return toSeconds(*d)
			}
		}
		if p.Call.StartTimestamp != nil && p.Call.EndTimestamp != nil {
			return toSeconds((*p.Call.EndTimestamp - *p.Call.StartTimestamp) / 1000)
		}
		return 0
	}

	for _, path := range durationFields {
		if d, ok := root.Path(path...).NumberLike(); ok && d > 0 {
			return toSeconds(d)
		}
	}
	start, okStart := root.Path("call", "start_timestamp").Number()
	end, okEnd := root.Path("call", "end_timestamp").Number()
	if okStart && okEnd {
		return toSeconds((end - start) / 1000)
	}
	return 0
}

func toSeconds(f float64) int {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(f))
}

// endReason prefers the validated payload and falls back to the raw body.
func endReason(p *payload.Payload, root payload.Node) string {
	if p != nil {
		return p.EndReason
	}
	s, _ := root.Get("end_reason").Str()
	return s
}

// isCompleted treats everything except an explicit error/failed end reason,
// including a missing one, as a completed call.
func isCompleted(reason string) bool {
	return reason != "error" && reason != "failed"
}

// callDetails copies the descriptive call fields into res. Lenient bodies
// fall back to the raw tree.
func callDetails(res *Result, p *payload.Payload, root payload.Node) {
	if p != nil {
		res.AgentID = p.Call.AgentID
		res.Direction = p.Call.Direction
		if p.Analysis != nil {
			res.Sentiment = p.Analysis.Sentiment
		}
		return
	}
	res.AgentID, _ = root.Path("call", "agent_id").Str()
	res.Direction, _ = root.Path("call", "direction").Str()
	res.Sentiment, _ = root.Path("analysis", "sentiment").Str()
}

// participantID reads call.metadata.participant_id, or nil when absent.
func participantID(root payload.Node) *string {
	s := root.Path("call", "metadata", "participant_id").Render()
	if s == "" {
		return nil
	}
	return &s
}
