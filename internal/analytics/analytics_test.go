package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/interviews/internal/store"
	"github.com/MikeSquared-Agency/interviews/internal/transcript"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func agent(text string) transcript.Utterance {
	return transcript.Utterance{Speaker: transcript.SpeakerAgent, Text: text}
}

func user(text string) transcript.Utterance {
	return transcript.Utterance{Speaker: transcript.SpeakerUser, Text: text}
}

func interview(callID string, minutes int, utts ...transcript.Utterance) store.Interview {
	return store.Interview{
		CallID:     callID,
		Transcript: utts,
		CreatedAt:  base.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestSummarize(t *testing.T) {
	ivs := []store.Interview{
		{DurationSeconds: 30, Completed: true},
		{DurationSeconds: 45, Completed: true},
		{DurationSeconds: 0, Completed: false},
	}

	s := Summarize(ivs)

	if s.TotalInterviews != 3 {
		t.Errorf("expected 3 interviews, got %d", s.TotalInterviews)
	}
	if s.CompletedInterviews != 2 {
		t.Errorf("expected 2 completed, got %d", s.CompletedInterviews)
	}
	if s.AverageDuration != 25 {
		t.Errorf("expected average 25, got %d", s.AverageDuration)
	}
	if s.CompletionRate != 67 {
		t.Errorf("expected completion rate 67, got %d", s.CompletionRate)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if s := Summarize(nil); s != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", s)
	}
}

func TestSummarize_RoundsHalfUp(t *testing.T) {
	s := Summarize([]store.Interview{{DurationSeconds: 1, Completed: true}, {DurationSeconds: 2}})
	if s.AverageDuration != 2 {
		t.Errorf("expected 1.5 to round to 2, got %d", s.AverageDuration)
	}
	if s.CompletionRate != 50 {
		t.Errorf("expected 50, got %d", s.CompletionRate)
	}
}

func TestQuestions_PairsNextUserTurn(t *testing.T) {
	ivs := []store.Interview{
		interview("a", 0,
			agent("How are you?"),
			agent("Still there?"),
			user("  Fine  "),
			agent("Anything else?"),
		),
		interview("b", 1,
			agent("How are you?"),
			user("Great"),
		),
	}

	qs := Questions(ivs)
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d: %+v", len(qs), qs)
	}

	first := qs[0]
	if first.Question != "How are you?" || first.TotalResponses != 2 {
		t.Errorf("expected How are you? with 2 responses first, got %+v", first)
	}
	if first.Responses[0].CallID != "b" || first.Responses[0].Answer != "Great" {
		t.Errorf("expected newest response first, got %+v", first.Responses)
	}
	if first.Responses[1].Answer != "Fine" {
		t.Errorf("expected trimmed answer, got %q", first.Responses[1].Answer)
	}
	if first.AverageLength != 5 {
		t.Errorf("expected average length 5 (Fine, Great), got %d", first.AverageLength)
	}

	// "Still there?" also takes the next user turn, even past another agent turn.
	if qs[1].Question != "Still there?" || qs[1].TotalResponses != 1 {
		t.Errorf("expected Still there? with 1 response, got %+v", qs[1])
	}

	unanswered := qs[2]
	if unanswered.Question != "Anything else?" || unanswered.TotalResponses != 0 {
		t.Errorf("expected unanswered question listed, got %+v", unanswered)
	}
	if unanswered.Responses == nil || len(unanswered.Responses) != 0 {
		t.Errorf("expected empty non-nil responses, got %#v", unanswered.Responses)
	}
	if unanswered.AverageLength != 0 {
		t.Errorf("expected average length 0, got %d", unanswered.AverageLength)
	}
}

func TestQuestions_KeepsFiveMostRecent(t *testing.T) {
	var ivs []store.Interview
	for i := 0; i < 8; i++ {
		ivs = append(ivs, interview(fmt.Sprintf("c%d", i), i, agent("Q"), user(fmt.Sprintf("answer %d", i))))
	}

	qs := Questions(ivs)
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	q := qs[0]
	if q.TotalResponses != 8 {
		t.Errorf("expected 8 total responses, got %d", q.TotalResponses)
	}
	if len(q.Responses) != RecentResponses {
		t.Fatalf("expected %d responses kept, got %d", RecentResponses, len(q.Responses))
	}
	for i, r := range q.Responses {
		want := fmt.Sprintf("c%d", 7-i)
		if r.CallID != want {
			t.Errorf("response %d: expected %s, got %s", i, want, r.CallID)
		}
	}
}

func TestQuestions_TieBreakByText(t *testing.T) {
	qs := Questions([]store.Interview{
		interview("a", 0, agent("Zeta"), user("1"), agent("Alpha"), user("2")),
	})
	if len(qs) != 2 || qs[0].Question != "Alpha" || qs[1].Question != "Zeta" {
		t.Errorf("expected alphabetical tie break, got %+v", qs)
	}
}

func TestQuestions_Empty(t *testing.T) {
	if qs := Questions(nil); len(qs) != 0 {
		t.Errorf("expected no questions, got %+v", qs)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{
		0:   "0m 0s",
		45:  "0m 45s",
		60:  "1m 0s",
		125: "2m 5s",
		-3:  "0m 0s",
	}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
