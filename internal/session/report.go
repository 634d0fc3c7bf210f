package session

import (
	"fmt"

	"github.com/rbright/rehearse/internal/export"
)

// OptionLabel renders a zero-based quiz option index as "A".."D".
func OptionLabel(index int) string {
	if index < 0 || index >= 26 {
		return "?"
	}
	return string(rune('A' + index))
}

// Entries returns the session as speaker turns for the plain-text transcript.
func (r Report) Entries() []export.Entry {
	if r.Kind != KindQuiz {
		return entriesFor(r.Kind, r.Transcript, r.Questions, r.Answers)
	}

	var entries []export.Entry
	for i, q := range r.Quiz {
		entries = append(entries, export.Entry{Speaker: export.SpeakerInterviewer, Text: q.Question})
		if answer := findAnswer(r.Answers, i); answer != nil && answer.SelectedOption != nil {
			entries = append(entries, export.Entry{Speaker: export.SpeakerCandidate, Text: quizChoice(q.Options, *answer.SelectedOption)})
		}
	}
	return entries
}

// Export maps the report onto the workbook model.
func (r Report) Export() export.Report {
	out := export.Report{
		SessionID:  r.SessionID,
		Kind:       string(r.Kind),
		Topic:      r.Topic,
		Language:   r.Language,
		StartedAt:  r.StartedAt,
		Transcript: r.Entries(),
	}
	if s := r.Summary; s != nil {
		out.CompletedAt = s.CompletedAt
		out.Score = s.Score
		out.TotalQuestions = s.TotalQuestions
		if iv := s.Interview; iv != nil {
			score := iv.OverallScore
			out.OverallScore = &score
			out.Summary = iv.Summary
			out.Strengths = iv.Strengths
			out.AreasForImprovement = iv.AreasForImprovement
			out.ToneAnalysis = iv.ToneAnalysis
		}
	}

	switch r.Kind {
	case KindQuiz:
		for i, q := range r.Quiz {
			row := export.Row{
				Question:      q.Question,
				CorrectAnswer: quizChoice(q.Options, q.CorrectAnswerIndex),
				Explanation:   q.Explanation,
			}
			if answer := findAnswer(r.Answers, i); answer != nil {
				if answer.SelectedOption != nil {
					row.Answer = quizChoice(q.Options, *answer.SelectedOption)
				}
				row.Correct = answer.IsCorrect
			}
			out.Rows = append(out.Rows, row)
		}
	case KindInterview:
		for i, q := range r.Questions {
			row := export.Row{Question: q.Question}
			if answer := findAnswer(r.Answers, i); answer != nil {
				row.Answer = answer.Text
				row.Feedback = answer.Feedback
			}
			out.Rows = append(out.Rows, row)
		}
	case KindConversation:
		var question string
		for _, turn := range r.Transcript {
			if turn.Role == RoleAssistant {
				question = turn.Text
				continue
			}
			out.Rows = append(out.Rows, export.Row{Question: question, Answer: turn.Text, Feedback: turn.Feedback})
		}
	}
	return out
}

func quizChoice(options []string, index int) string {
	if index < 0 || index >= len(options) {
		return OptionLabel(index)
	}
	return fmt.Sprintf("%s) %s", OptionLabel(index), options[index])
}
