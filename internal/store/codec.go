package store

import (
	"encoding/json"
	"fmt"

	"github.com/MikeSquared-Agency/interviews/internal/transcript"
)

// encodeTranscript never produces "null": an empty transcript is stored as [].
func encodeTranscript(utts []transcript.Utterance) (string, error) {
	if utts == nil {
		utts = []transcript.Utterance{}
	}
	b, err := json.Marshal(utts)
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	return string(b), nil
}

func decodeTranscript(raw []byte) ([]transcript.Utterance, error) {
	utts := []transcript.Utterance{}
	if len(raw) == 0 {
		return utts, nil
	}
	if err := json.Unmarshal(raw, &utts); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	if utts == nil {
		utts = []transcript.Utterance{}
	}
	return utts, nil
}
