package transcript

// Speaker identifies which side of the call produced an utterance.
type Speaker string

const (
	SpeakerAgent Speaker = "agent"
	SpeakerUser  Speaker = "user"
)

// Utterance is a single conversation turn. The JSON tags match the shape
// stored in interviews.transcript.
type Utterance struct {
	Speaker    Speaker  `json:"role"`
	Text       string   `json:"content"`
	OccurredAt *float64 `json:"timestamp,omitempty"`
}

// Count returns how many utterances came from the given speaker.
func Count(utts []Utterance, s Speaker) int {
	n := 0
	for _, u := range utts {
		if u.Speaker == s {
			n++
		}
	}
	return n
}
