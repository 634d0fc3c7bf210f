package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary    = "Summary"
	sheetQuestions  = "Questions"
	sheetTranscript = "Transcript"
)

// Report is the exportable view of one practice session.
type Report struct {
	SessionID   string
	Kind        string
	Topic       string
	Language    string
	StartedAt   time.Time
	CompletedAt time.Time

	// Quiz scoring; TotalQuestions is zero for interview modes.
	Score          int
	TotalQuestions int

	// Interview scoring; nil for quizzes.
	OverallScore        *float64
	Summary             string
	Strengths           []string
	AreasForImprovement []string
	ToneAnalysis        string

	Rows       []Row
	Transcript []Entry
}

// Row is one question with the candidate's answer.
type Row struct {
	Question      string
	Answer        string
	Correct       *bool
	CorrectAnswer string
	Explanation   string
	Feedback      string
}

// WriteWorkbook writes r as an xlsx workbook.
func WriteWorkbook(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeRows(f, sheetSummary, summaryRows(r)); err != nil {
		return err
	}

	if len(r.Rows) > 0 {
		if _, err := f.NewSheet(sheetQuestions); err != nil {
			return fmt.Errorf("failed to create Excel sheet: %w", err)
		}
		if err := writeRows(f, sheetQuestions, questionRows(r.Rows)); err != nil {
			return err
		}
	}

	if len(r.Transcript) > 0 {
		if _, err := f.NewSheet(sheetTranscript); err != nil {
			return fmt.Errorf("failed to create Excel sheet: %w", err)
		}
		rows := [][]any{{"Speaker", "Text"}}
		for _, entry := range r.Transcript {
			rows = append(rows, []any{entry.Speaker, strings.TrimSpace(entry.Text)})
		}
		if err := writeRows(f, sheetTranscript, rows); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func summaryRows(r Report) [][]any {
	rows := [][]any{
		{"Session", r.SessionID},
		{"Mode", r.Kind},
		{"Topic", r.Topic},
		{"Language", r.Language},
	}
	if !r.StartedAt.IsZero() {
		rows = append(rows, []any{"Started", r.StartedAt.UTC().Format(time.RFC3339)})
	}
	if !r.CompletedAt.IsZero() {
		rows = append(rows, []any{"Completed", r.CompletedAt.UTC().Format(time.RFC3339)})
	}
	if r.TotalQuestions > 0 {
		rows = append(rows, []any{"Score", fmt.Sprintf("%d / %d", r.Score, r.TotalQuestions)})
	}
	if r.OverallScore != nil {
		rows = append(rows,
			[]any{"Overall score", *r.OverallScore},
			[]any{"Summary", r.Summary},
			[]any{"Strengths", strings.Join(r.Strengths, "\n")},
			[]any{"Areas for improvement", strings.Join(r.AreasForImprovement, "\n")},
		)
		if r.ToneAnalysis != "" {
			rows = append(rows, []any{"Tone", r.ToneAnalysis})
		}
	}
	return rows
}

func questionRows(items []Row) [][]any {
	rows := [][]any{{"#", "Question", "Answer", "Correct", "Correct Answer", "Explanation", "Feedback"}}
	for i, item := range items {
		correct := ""
		if item.Correct != nil {
			correct = "no"
			if *item.Correct {
				correct = "yes"
			}
		}
		rows = append(rows, []any{i + 1, item.Question, item.Answer, correct, item.CorrectAnswer, item.Explanation, item.Feedback})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("resolve cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
