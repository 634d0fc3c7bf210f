// Package speech adapts a streaming recognizer into an accumulating
// transcript for dictated answers.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedCapability indicates no recognizer is available.
	ErrUnsupportedCapability = errors.New("speech recognition is not available on this system")
	// ErrPermissionDenied indicates the platform refused microphone or service access.
	ErrPermissionDenied = errors.New("speech recognition permission denied")
	// ErrNoSpeechDetected indicates nothing was recognized before the timeout.
	ErrNoSpeechDetected = errors.New("no speech detected")
)

// Result is one recognition update. Interim results replace each other;
// final results are appended to the transcript.
type Result struct {
	Text  string
	Final bool
}

// Stream is one open recognition session.
type Stream interface {
	// Results is closed when the stream ends.
	Results() <-chan Result
	// Err reports the terminal error once Results is closed.
	Err() error
	// Close stops input. Pending results are still delivered before
	// Results is closed.
	Close() error
}

// Recognizer opens recognition streams for a locale tag such as "en-US".
type Recognizer interface {
	Open(ctx context.Context, languageTag string) (Stream, error)
}

// Event is pushed to subscribers as recognition progresses.
type Event struct {
	FinalDelta string
	Interim    string
	Err        error
	// Done marks the end of a listening session.
	Done bool
}
