// Package analytics computes dashboard aggregates over stored interviews.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/interviews/internal/store"
	"github.com/MikeSquared-Agency/interviews/internal/transcript"
)

// RecentResponses is how many answers each Question keeps.
const RecentResponses = 5

type Stats struct {
	TotalInterviews     int `json:"totalInterviews"`
	CompletedInterviews int `json:"completedInterviews"`
	AverageDuration     int `json:"averageDuration"`
	CompletionRate      int `json:"completionRate"`
}

type Response struct {
	CallID string    `json:"callId"`
	Answer string    `json:"answer"`
	At     time.Time `json:"timestamp"`
}

type Question struct {
	Question       string     `json:"question"`
	TotalResponses int        `json:"totalResponses"`
	AverageLength  int        `json:"averageLength"`
	Responses      []Response `json:"responses"`
}

// Summarize returns totals across interviews. Averages and the completion
// percentage are rounded half up; an empty set yields zeros.
func Summarize(interviews []store.Interview) Stats {
	s := Stats{TotalInterviews: len(interviews)}
	if s.TotalInterviews == 0 {
		return s
	}

	total := 0
	for _, iv := range interviews {
		if iv.Completed {
			s.CompletedInterviews++
		}
		total += iv.DurationSeconds
	}
	s.AverageDuration = roundDiv(float64(total), float64(s.TotalInterviews))
	s.CompletionRate = roundDiv(float64(s.CompletedInterviews)*100, float64(s.TotalInterviews))
	return s
}

// Questions groups agent turns by their trimmed text and pairs each with the
// next user turn of the same interview. A question nobody answered is still
// listed with zero responses.
func Questions(interviews []store.Interview) []Question {
	type acc struct {
		responses []Response
		totalLen  int
	}
	byText := make(map[string]*acc)
	var order []string

	for _, iv := range interviews {
		utts := iv.Transcript
		for i, u := range utts {
			if u.Speaker != transcript.SpeakerAgent {
				continue
			}
			q := strings.TrimSpace(u.Text)
			if q == "" {
				continue
			}

			a, ok := byText[q]
			if !ok {
				a = &acc{}
				byText[q] = a
				order = append(order, q)
			}

			answer := nextAnswer(utts[i+1:])
			if answer == "" {
				continue
			}
			a.responses = append(a.responses, Response{CallID: iv.CallID, Answer: answer, At: iv.CreatedAt})
			a.totalLen += utf8.RuneCountInString(answer)
		}
	}

	out := make([]Question, 0, len(order))
	for _, q := range order {
		a := byText[q]
		rs := a.responses
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].At.After(rs[j].At) })
		if len(rs) > RecentResponses {
			rs = rs[:RecentResponses]
		}
		if rs == nil {
			rs = []Response{}
		}

		item := Question{
			Question:       q,
			TotalResponses: len(a.responses),
			Responses:      rs,
		}
		if item.TotalResponses > 0 {
			item.AverageLength = roundDiv(float64(a.totalLen), float64(item.TotalResponses))
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalResponses != out[j].TotalResponses {
			return out[i].TotalResponses > out[j].TotalResponses
		}
		return out[i].Question < out[j].Question
	})
	return out
}

// nextAnswer returns the first user turn in rest, trimmed.
func nextAnswer(rest []transcript.Utterance) string {
	for _, u := range rest {
		if u.Speaker == transcript.SpeakerUser {
			return strings.TrimSpace(u.Text)
		}
	}
	return ""
}

// FormatDuration renders seconds as "Xm Ys".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

func roundDiv(num, den float64) int {
	return int(math.Floor(num/den + 0.5))
}
