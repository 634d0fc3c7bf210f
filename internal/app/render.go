package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/session"
)

func renderSnapshot(w io.Writer, snap session.Snapshot) {
	switch snap.State {
	case fsm.StateIdle:
		fmt.Fprintln(w, "idle")
		return
	case fsm.StateLoading:
		fmt.Fprintf(w, "loading %s on %q...\n", snap.Kind, snap.Topic)
		return
	case fsm.StateSummarizing:
		fmt.Fprintln(w, "summarizing...")
		return
	case fsm.StateErrored:
		fmt.Fprintf(w, "error: %s\n", snap.Error)
		fmt.Fprintln(w, "run `rehearse restart` to start over")
		return
	case fsm.StateComplete:
		if snap.Summary != nil {
			renderSummary(w, *snap.Summary)
			return
		}
		fmt.Fprintln(w, "complete")
		return
	}

	fmt.Fprintf(w, "%s · %s · %s\n", snap.Kind, snap.Topic, snap.Language)
	if snap.Kind == session.KindConversation {
		fmt.Fprintf(w, "Question %d (up to %d)\n", snap.QuestionIndex+1, snap.TotalQuestions)
	} else {
		fmt.Fprintf(w, "Question %d/%d\n", snap.QuestionIndex+1, snap.TotalQuestions)
	}
	fmt.Fprintln(w, snap.Question)

	for i, option := range snap.Options {
		marker := " "
		if snap.Answer != nil && snap.Answer.SelectedOption != nil && *snap.Answer.SelectedOption == i {
			marker = ">"
		}
		fmt.Fprintf(w, "%s %s) %s\n", marker, session.OptionLabel(i), option)
	}

	if snap.Answer != nil {
		renderAnswer(w, snap)
	}
	if snap.Listening {
		fmt.Fprintln(w, "[listening]")
	}
}

func renderAnswer(w io.Writer, snap session.Snapshot) {
	answer := snap.Answer
	if answer.IsCorrect != nil {
		if *answer.IsCorrect {
			fmt.Fprintln(w, "Correct!")
		} else if snap.CorrectOption != nil {
			fmt.Fprintf(w, "Incorrect. The answer is %s.\n", session.OptionLabel(*snap.CorrectOption))
		}
		if snap.Explanation != "" {
			fmt.Fprintln(w, snap.Explanation)
		}
		return
	}
	if answer.Feedback != "" {
		fmt.Fprintf(w, "Feedback: %s\n", answer.Feedback)
	}
}

func renderSummary(w io.Writer, summary session.Summary) {
	if summary.Kind == session.KindQuiz || summary.Interview == nil {
		fmt.Fprintf(w, "Score: %d/%d\n", summary.Score, summary.TotalQuestions)
		renderResults(w, summary)
		return
	}

	report := summary.Interview
	fmt.Fprintf(w, "Overall score: %.1f/10\n", report.OverallScore)
	fmt.Fprintln(w, report.Summary)
	renderList(w, "Strengths", report.Strengths)
	renderList(w, "Areas for improvement", report.AreasForImprovement)
	if tone := strings.TrimSpace(report.ToneAnalysis); tone != "" {
		fmt.Fprintf(w, "Tone: %s\n", tone)
	}
}

func renderResults(w io.Writer, summary session.Summary) {
	for i, question := range summary.Questions {
		fmt.Fprintf(w, "%d. %s\n", i+1, question.Question)
		result := findResult(summary.Results, i)
		if result == nil || result.SelectedOption == nil {
			fmt.Fprintln(w, "   Your answer: none")
			continue
		}
		chosen := *result.SelectedOption
		fmt.Fprintf(w, "   Your answer: %s) %s", session.OptionLabel(chosen), optionText(question.Options, chosen))
		if result.IsCorrect != nil && *result.IsCorrect {
			fmt.Fprintln(w, " (correct)")
			continue
		}
		correct := question.CorrectAnswerIndex
		fmt.Fprintf(w, " (correct: %s) %s)\n", session.OptionLabel(correct), optionText(question.Options, correct))
	}
}

func findResult(results []session.AnswerRecord, index int) *session.AnswerRecord {
	for i := range results {
		if results[i].QuestionIndex == index {
			return &results[i]
		}
	}
	return nil
}

func optionText(options []string, index int) string {
	if index < 0 || index >= len(options) {
		return ""
	}
	return options[index]
}

func renderList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
