package interpret

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const quizJSON = `[
  {"question": "What does GC stand for?", "options": ["Garbage collection", "Go compiler", "Goroutine cache", "Global context"], "correctAnswerIndex": 0, "explanation": "Memory management."},
  {"question": "Zero value of a map?", "options": ["{}", "nil", "0", "empty"], "correctAnswerIndex": 1, "explanation": "Maps are nil until made."}
]`

func TestParseQuizWellFormed(t *testing.T) {
	questions, err := ParseQuiz(quizJSON)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, "What does GC stand for?", questions[0].Question)
	require.Len(t, questions[0].Options, 4)
	require.Equal(t, 1, questions[1].CorrectAnswerIndex)
	require.Equal(t, "Maps are nil until made.", questions[1].Explanation)
}

func TestParseQuizEmptyAndMalformed(t *testing.T) {
	_, err := ParseQuiz("  \n ")
	require.ErrorIs(t, err, ErrEmptyResponse)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Equal(t, KindEmptyResponse, parseErr.Kind)

	_, err = ParseQuiz(`[{"question": "x",`)
	require.ErrorIs(t, err, ErrMalformedResponse)
	require.NotErrorIs(t, err, ErrEmptyResponse)
}

func TestParseQuizRejectsShapeViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "three options", raw: `[{"question":"q","options":["a","b","c"],"correctAnswerIndex":0,"explanation":"e"}]`},
		{name: "index out of range", raw: `[{"question":"q","options":["a","b","c","d"],"correctAnswerIndex":4,"explanation":"e"}]`},
		{name: "missing index", raw: `[{"question":"q","options":["a","b","c","d"],"explanation":"e"}]`},
		{name: "missing question", raw: `[{"options":["a","b","c","d"],"correctAnswerIndex":1}]`},
		{name: "blank option", raw: `[{"question":"q","options":["a","","c","d"],"correctAnswerIndex":1}]`},
		{name: "object instead of list", raw: `{"question":"q"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseQuiz(tc.raw)
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestParseQuizAcceptsZeroIndexAndEmptyList(t *testing.T) {
	questions, err := ParseQuiz(`[{"question":"q","options":["a","b","c","d"],"correctAnswerIndex":0}]`)
	require.NoError(t, err)
	require.Equal(t, 0, questions[0].CorrectAnswerIndex)

	questions, err = ParseQuiz(`[]`)
	require.NoError(t, err)
	require.Empty(t, questions)
}

func TestParseQuizRecoversFromFencesProseAndWrappers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "fenced", raw: "```json\n" + quizJSON + "\n```"},
		{name: "prose around", raw: "Here is your quiz:\n" + quizJSON + "\nGood luck!"},
		{name: "wrapped", raw: `{"questions": ` + quizJSON + `}`},
		{name: "fenced and wrapped", raw: "```\n{\"quiz\": " + quizJSON + "}\n```"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			questions, err := ParseQuiz(tc.raw)
			require.NoError(t, err)
			require.Len(t, questions, 2)
		})
	}
}

func TestParseQuestions(t *testing.T) {
	questions, err := ParseQuestions(`[{"question":" Tell me about yourself. "},{"question":"Why here?"}]`)
	require.NoError(t, err)
	require.Equal(t, []InterviewQuestion{{Question: "Tell me about yourself."}, {Question: "Why here?"}}, questions)

	questions, err = ParseQuestions(`{"items": ["One?", "Two?"]}`)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, "Two?", questions[1].Question)

	_, err = ParseQuestions(`[{"question":""}]`)
	require.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ParseQuestions("")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestParseFeedback(t *testing.T) {
	feedback, err := ParseFeedback(`{"feedback": "**Clarity** good"}`)
	require.NoError(t, err)
	require.Equal(t, "**Clarity** good", feedback)

	feedback, err = ParseFeedback(`{"result": {"feedback": "wrapped"}}`)
	require.NoError(t, err)
	require.Equal(t, "wrapped", feedback)

	_, err = ParseFeedback(`{"feedback": ""}`)
	require.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ParseFeedback(`not json at all`)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseSummary(t *testing.T) {
	summary, err := ParseSummary(`{
		"strengths": ["Clear structure"],
		"areasForImprovement": ["Quantify results"],
		"overallScore": 7.5,
		"summary": "Solid interview.",
		"toneAnalysis": "Confident"
	}`)
	require.NoError(t, err)
	require.Equal(t, 7.5, summary.OverallScore)
	require.Equal(t, []string{"Clear structure"}, summary.Strengths)
	require.Equal(t, "Confident", summary.ToneAnalysis)

	summary, err = ParseSummary(`{"strengths":[],"areasForImprovement":[],"overallScore":0,"summary":"s"}`)
	require.NoError(t, err)
	require.Empty(t, summary.ToneAnalysis)
	require.Zero(t, summary.OverallScore)
}

func TestParseSummaryRejectsBadScores(t *testing.T) {
	for _, raw := range []string{
		`{"strengths":[],"areasForImprovement":[],"overallScore":11,"summary":"s"}`,
		`{"strengths":[],"areasForImprovement":[],"overallScore":"8","summary":"s"}`,
		`{"strengths":[],"areasForImprovement":[],"summary":"s"}`,
	} {
		_, err := ParseSummary(raw)
		require.ErrorIs(t, err, ErrMalformedResponse, raw)
	}
}
