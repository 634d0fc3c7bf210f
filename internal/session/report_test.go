package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/rehearse/internal/export"
	"github.com/rbright/rehearse/internal/interpret"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestOptionLabel(t *testing.T) {
	require.Equal(t, "A", OptionLabel(0))
	require.Equal(t, "D", OptionLabel(3))
	require.Equal(t, "?", OptionLabel(-1))
}

func TestQuizReportExport(t *testing.T) {
	completed := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	report := Report{
		Snapshot: Snapshot{SessionID: "s-1", Kind: KindQuiz, Topic: "Go", Language: "en-US", Summary: &Summary{
			Kind: KindQuiz, Score: 1, TotalQuestions: 2, CompletedAt: completed,
		}},
		Quiz: []interpret.QuizQuestion{
			{Question: "Zero value of a map?", Options: []string{"nil", "empty", "panic", "0"}, CorrectAnswerIndex: 0, Explanation: "Maps are reference types."},
			{Question: "Unbuffered send blocks until?", Options: []string{"never", "receiver ready", "GC", "timeout"}, CorrectAnswerIndex: 1},
		},
		Answers: []AnswerRecord{
			{QuestionIndex: 0, SelectedOption: intPtr(0), IsCorrect: boolPtr(true)},
			{QuestionIndex: 1, SelectedOption: intPtr(3), IsCorrect: boolPtr(false)},
		},
	}

	out := report.Export()
	require.Equal(t, "quiz", out.Kind)
	require.Equal(t, 1, out.Score)
	require.Equal(t, 2, out.TotalQuestions)
	require.Equal(t, completed, out.CompletedAt)
	require.Nil(t, out.OverallScore)
	require.Len(t, out.Rows, 2)
	require.Equal(t, "A) nil", out.Rows[0].Answer)
	require.Equal(t, "A) nil", out.Rows[0].CorrectAnswer)
	require.True(t, *out.Rows[0].Correct)
	require.Equal(t, "D) timeout", out.Rows[1].Answer)
	require.Equal(t, "B) receiver ready", out.Rows[1].CorrectAnswer)
	require.False(t, *out.Rows[1].Correct)

	require.Equal(t, []export.Entry{
		{Speaker: export.SpeakerInterviewer, Text: "Zero value of a map?"},
		{Speaker: export.SpeakerCandidate, Text: "A) nil"},
		{Speaker: export.SpeakerInterviewer, Text: "Unbuffered send blocks until?"},
		{Speaker: export.SpeakerCandidate, Text: "D) timeout"},
	}, out.Transcript)
}

func TestInterviewReportExport(t *testing.T) {
	report := Report{
		Snapshot: Snapshot{Kind: KindInterview, Summary: &Summary{
			Kind: KindInterview,
			Interview: &interpret.InterviewSummary{
				OverallScore: 7.5,
				Summary:      "Solid.",
				Strengths:    []string{"Structure"},
			},
		}},
		Questions: []interpret.InterviewQuestion{{Question: "Tell me about yourself."}, {Question: "Why this role?"}},
		Answers:   []AnswerRecord{{QuestionIndex: 0, Text: "I fix things.", Feedback: "Add detail."}},
	}

	out := report.Export()
	require.NotNil(t, out.OverallScore)
	require.InDelta(t, 7.5, *out.OverallScore, 0.001)
	require.Equal(t, []string{"Structure"}, out.Strengths)
	require.Equal(t, []export.Row{
		{Question: "Tell me about yourself.", Answer: "I fix things.", Feedback: "Add detail."},
		{Question: "Why this role?"},
	}, out.Rows)
	require.Equal(t,
		"Interviewer:\nTell me about yourself.\n\nYou:\nI fix things.\n\nInterviewer:\nWhy this role?\n\n",
		export.Transcript(report.Entries()),
	)
}

func TestConversationReportExport(t *testing.T) {
	report := Report{
		Snapshot: Snapshot{Kind: KindConversation},
		Transcript: []TranscriptTurn{
			{Role: RoleAssistant, Text: "Walk me through an outage."},
			{Role: RoleUser, Text: "The cache fell over.", Feedback: "Clarity: good."},
			{Role: RoleAssistant, Text: "What did you change after?"},
		},
	}

	out := report.Export()
	require.Equal(t, []export.Row{
		{Question: "Walk me through an outage.", Answer: "The cache fell over.", Feedback: "Clarity: good."},
	}, out.Rows)
	require.Len(t, out.Transcript, 3)
	require.Equal(t, export.SpeakerCandidate, out.Transcript[1].Speaker)
	require.True(t, out.CompletedAt.IsZero())
}
