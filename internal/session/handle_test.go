package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/rehearse/internal/generation"
	"github.com/rbright/rehearse/internal/interpret"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/speech"
)

func TestHandleQuizOverIPC(t *testing.T) {
	ctrl := NewController(nil, newScripted(reply{text: threeQuestionQuiz}), nil, Options{})
	ctx := context.Background()

	resp := ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandStatus})
	require.True(t, resp.OK)
	require.Equal(t, "idle", resp.State)

	resp = ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandStart, Mode: "quiz", Topic: "Go", Language: "fr_fr"})
	require.True(t, resp.OK, resp.Error)
	require.Equal(t, "active", resp.State)

	var snap Snapshot
	require.NoError(t, resp.DecodeData(&snap))
	require.Equal(t, "fr-FR", snap.Language)
	require.Equal(t, "Q1", snap.Question)

	resp = ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandAnswer, Text: "A"})
	require.True(t, resp.OK)
	require.NoError(t, resp.DecodeData(&snap))
	require.True(t, *snap.Answer.IsCorrect)

	resp = ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandSummary})
	require.False(t, resp.OK)
	require.Equal(t, ErrNoSummary.Error(), resp.Error)

	resp = ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandReport})
	require.True(t, resp.OK)
	var report Report
	require.NoError(t, resp.DecodeData(&report))
	require.Len(t, report.Quiz, 3)
	require.Len(t, report.Answers, 1)

	resp = ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandRestart})
	require.True(t, resp.OK)
	require.Equal(t, "idle", resp.State)

	resp = ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandReport})
	require.False(t, resp.OK)
}

func TestHandleRejectsBadInput(t *testing.T) {
	ctrl := NewController(nil, newScripted(), nil, Options{})
	ctx := context.Background()

	resp := ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandStart, Mode: "trivia", Topic: "Go"})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown mode")

	resp = ctrl.Handle(ctx, ipc.Request{Command: "dance"})
	require.False(t, resp.OK)
	require.Equal(t, "unknown command: dance", resp.Error)

	resp = ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandNext})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "no active practice session")

	resp = ctrl.Handle(ctx, ipc.Request{Command: ipc.CommandListen})
	require.False(t, resp.OK)
	require.Equal(t, UserMessage(speech.ErrUnsupportedCapability), resp.Error)
}

func TestUserMessageCoversErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: generation.FromStatus(403, ""), want: "Invalid API key. Please check your configuration."},
		{err: &generation.Error{Kind: generation.ErrTransport}, want: "Network error. Please check your internet connection and try again."},
		{err: generation.FromStatus(429, ""), want: "You've exceeded the request limit. Please wait a moment and try again."},
		{err: &generation.Error{Kind: generation.ErrSafetyBlocked}, want: "The response was blocked due to safety settings. Please try rephrasing your input or choose another topic."},
		{err: generation.FromStatus(503, "overloaded"), want: "An unexpected error occurred with the AI service. Please try again later."},
		{err: fmt.Errorf("quiz: %w", interpret.ErrMalformedResponse), want: "The AI returned invalid data. Please try again."},
		{err: ErrNoQuestions, want: "The AI failed to generate questions for this topic. Please try another one."},
		{err: speech.ErrNoSpeechDetected, want: "No speech was detected. Please try again."},
		{err: errors.New("something odd"), want: "something odd"},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, UserMessage(tc.err))
	}
}
