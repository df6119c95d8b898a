package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/interviews/internal/analytics"
	"github.com/MikeSquared-Agency/interviews/internal/store"
	"github.com/MikeSquared-Agency/interviews/internal/transcript"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	participant := "p-1"
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interviews := []store.Interview{
		{
			CallID:          "call-1",
			ParticipantID:   &participant,
			DurationSeconds: 125,
			Completed:       true,
			Transcript: []transcript.Utterance{
				{Speaker: transcript.SpeakerAgent, Text: "Hi"},
				{Speaker: transcript.SpeakerUser, Text: "Hello"},
			},
			CreatedAt: created,
			UpdatedAt: created.Add(time.Minute),
		},
		{CallID: "call-2", CreatedAt: created, UpdatedAt: created},
	}
	questions := analytics.Questions(interviews)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, interviews, questions); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SheetInterviews || sheets[1] != SheetQuestions {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(SheetInterviews)
	if err != nil {
		t.Fatalf("read interviews: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Call ID" {
		t.Errorf("expected header, got %v", rows[0])
	}
	want := []string{"call-1", "p-1", "125", "2m 5s", "", "2", "1", "1", "2026-03-01T12:00:00Z", "2026-03-01T12:01:00Z"}
	for i, w := range want {
		if i == 4 {
			if !isBool(rows[1][i], true) {
				t.Errorf("expected completed true, got %q", rows[1][i])
			}
			continue
		}
		if rows[1][i] != w {
			t.Errorf("interviews col %d: expected %q, got %q", i, w, rows[1][i])
		}
	}
	if rows[2][1] != "" || !isBool(rows[2][4], false) {
		t.Errorf("unexpected second row %v", rows[2])
	}

	qrows, err := f.GetRows(SheetQuestions)
	if err != nil {
		t.Fatalf("read questions: %v", err)
	}
	if len(qrows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(qrows))
	}
	if qrows[1][0] != "Hi" || qrows[1][1] != "1" || qrows[1][2] != "5" {
		t.Errorf("unexpected question row %v", qrows[1])
	}
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil, nil); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows(SheetQuestions)
	if len(rows) != 1 {
		t.Errorf("expected only the header row, got %d", len(rows))
	}
}

func isBool(cell string, want bool) bool {
	if want {
		return cell == "TRUE" || cell == "1"
	}
	return cell == "FALSE" || cell == "0"
}
