package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	results chan Result
	mu      sync.Mutex
	err     error
	closed  bool
	ended   bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{results: make(chan Result, 16)}
}

func (s *fakeStream) Results() <-chan Result { return s.results }

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.endLocked()
	return nil
}

func (s *fakeStream) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.endLocked()
}

func (s *fakeStream) endLocked() {
	if !s.ended {
		s.ended = true
		close(s.results)
	}
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeRecognizer struct {
	mu      sync.Mutex
	opens   int
	tags    []string
	stream  *fakeStream
	openErr error
}

func (r *fakeRecognizer) Open(_ context.Context, tag string) (Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opens++
	r.tags = append(r.tags, tag)
	if r.openErr != nil {
		return nil, r.openErr
	}
	return r.stream, nil
}

func (r *fakeRecognizer) openCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

func waitFor(t *testing.T, events <-chan Event, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for speech event")
			return Event{}
		}
	}
}

func TestAdapterWithoutRecognizerHasNoSupport(t *testing.T) {
	adapter := NewAdapter(nil, nil, 0)
	require.False(t, adapter.HasSupport())
	require.ErrorIs(t, adapter.Start(context.Background(), "en-US"), ErrUnsupportedCapability)
	require.False(t, adapter.Listening())
}

func TestAdapterAccumulatesFinalAndReplacesInterim(t *testing.T) {
	stream := newFakeStream()
	recognizer := &fakeRecognizer{stream: stream}
	adapter := NewAdapter(recognizer, nil, 0)

	events, cancel := adapter.Subscribe(16)
	defer cancel()

	require.NoError(t, adapter.Start(context.Background(), "fr-FR"))
	require.True(t, adapter.Listening())
	require.Equal(t, []string{"fr-FR"}, recognizer.tags)

	stream.results <- Result{Text: "I led"}
	waitFor(t, events, func(ev Event) bool { return ev.Interim == "I led" })
	require.Equal(t, "I led", adapter.Interim())

	stream.results <- Result{Text: "I led the migration", Final: true}
	waitFor(t, events, func(ev Event) bool { return ev.FinalDelta != "" })
	require.Empty(t, adapter.Interim())

	stream.results <- Result{Text: "  of our   billing system ", Final: true}
	waitFor(t, events, func(ev Event) bool { return ev.FinalDelta != "" })
	require.Equal(t, "I led the migration of our billing system", adapter.Transcript())

	adapter.Stop()
	require.False(t, adapter.Listening())
	require.NoError(t, adapter.Err())
	require.Equal(t, "I led the migration of our billing system", adapter.Transcript())

	adapter.ResetTranscript()
	require.Empty(t, adapter.Transcript())
}

func TestAdapterStartWhileListeningIsNoop(t *testing.T) {
	recognizer := &fakeRecognizer{stream: newFakeStream()}
	adapter := NewAdapter(recognizer, nil, 0)

	require.NoError(t, adapter.Start(context.Background(), "en-US"))
	require.NoError(t, adapter.Start(context.Background(), "en-US"))
	require.Equal(t, 1, recognizer.openCount())

	adapter.Stop()
	adapter.Stop()
	require.False(t, adapter.Listening())
}

func TestAdapterNoSpeechTimeout(t *testing.T) {
	stream := newFakeStream()
	adapter := NewAdapter(&fakeRecognizer{stream: stream}, nil, 20*time.Millisecond)

	events, cancel := adapter.Subscribe(4)
	defer cancel()

	require.NoError(t, adapter.Start(context.Background(), "en-US"))
	ev := waitFor(t, events, func(ev Event) bool { return ev.Err != nil })
	require.ErrorIs(t, ev.Err, ErrNoSpeechDetected)
	waitFor(t, events, func(ev Event) bool { return ev.Done })

	require.False(t, adapter.Listening())
	require.ErrorIs(t, adapter.Err(), ErrNoSpeechDetected)
	require.True(t, stream.isClosed())
}

func TestAdapterStopKeepsFlushedResults(t *testing.T) {
	stream := newFakeStream()
	adapter := NewAdapter(&fakeRecognizer{stream: stream}, nil, 0)

	require.NoError(t, adapter.Start(context.Background(), "en-US"))
	// buffered before stop, delivered while draining
	stream.results <- Result{Text: "last words", Final: true}

	adapter.Stop()
	require.False(t, adapter.Listening())
	require.Equal(t, "Last words", adapter.Transcript())
}

func TestAdapterOpenPermissionDenied(t *testing.T) {
	recognizer := &fakeRecognizer{openErr: errors.Join(ErrPermissionDenied, errors.New("pulse: access denied"))}
	adapter := NewAdapter(recognizer, nil, 0)

	err := adapter.Start(context.Background(), "en-US")
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.False(t, adapter.Listening())
	require.ErrorIs(t, adapter.Err(), ErrPermissionDenied)
}

func TestAdapterStreamErrorEndsSession(t *testing.T) {
	stream := newFakeStream()
	adapter := NewAdapter(&fakeRecognizer{stream: stream}, nil, 0)

	events, cancel := adapter.Subscribe(4)
	defer cancel()

	require.NoError(t, adapter.Start(context.Background(), "en-US"))
	boom := errors.New("stream reset")
	stream.end(boom)

	ev := waitFor(t, events, func(ev Event) bool { return ev.Err != nil })
	require.ErrorIs(t, ev.Err, boom)
	require.False(t, adapter.Listening())
}
