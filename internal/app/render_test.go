package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/rehearse/internal/interpret"
	"github.com/rbright/rehearse/internal/session"
)

func TestRenderQuizSummaryListsEveryQuestion(t *testing.T) {
	first, second := 0, 3
	right, wrong := true, false
	summary := session.Summary{
		Kind:           session.KindQuiz,
		Score:          1,
		TotalQuestions: 3,
		Questions: []interpret.QuizQuestion{
			{Question: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 0},
			{Question: "Q2", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 1},
			{Question: "Q3", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 2},
		},
		Results: []session.AnswerRecord{
			{QuestionIndex: 0, SelectedOption: &first, IsCorrect: &right},
			{QuestionIndex: 1, SelectedOption: &second, IsCorrect: &wrong},
		},
	}

	var out bytes.Buffer
	renderSummary(&out, summary)
	require.Equal(t, "Score: 1/3\n"+
		"1. Q1\n   Your answer: A) a (correct)\n"+
		"2. Q2\n   Your answer: D) d (correct: B) b)\n"+
		"3. Q3\n   Your answer: none\n", out.String())
}
