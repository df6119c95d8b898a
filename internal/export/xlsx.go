// Package export writes interview reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/MikeSquared-Agency/interviews/internal/analytics"
	"github.com/MikeSquared-Agency/interviews/internal/store"
	"github.com/MikeSquared-Agency/interviews/internal/transcript"

	"github.com/xuri/excelize/v2"
)

const (
	SheetInterviews = "Interviews"
	SheetQuestions  = "Questions"
)

var (
	interviewHeader = []any{"Call ID", "Participant", "Duration (s)", "Duration", "Completed", "Utterances", "Agent Turns", "User Turns", "Created", "Updated"}
	questionHeader  = []any{"Question", "Responses", "Average Length"}
)

// WriteXLSX writes one row per interview and one row per question to w.
func WriteXLSX(w io.Writer, interviews []store.Interview, questions []analytics.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetInterviews); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetQuestions); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	rows := make([][]any, 0, len(interviews))
	for _, iv := range interviews {
		participant := ""
		if iv.ParticipantID != nil {
			participant = *iv.ParticipantID
		}
		rows = append(rows, []any{
			iv.CallID,
			participant,
			iv.DurationSeconds,
			analytics.FormatDuration(iv.DurationSeconds),
			iv.Completed,
			len(iv.Transcript),
			transcript.Count(iv.Transcript, transcript.SpeakerAgent),
			transcript.Count(iv.Transcript, transcript.SpeakerUser),
			iv.CreatedAt.UTC().Format(time.RFC3339),
			iv.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeSheet(f, SheetInterviews, interviewHeader, rows, bold); err != nil {
		return err
	}

	rows = rows[:0]
	for _, q := range questions {
		rows = append(rows, []any{q.Question, q.TotalResponses, q.AverageLength})
	}
	if err := writeSheet(f, SheetQuestions, questionHeader, rows, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetQuestions, "A", "A", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetInterviews, "A", "B", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
