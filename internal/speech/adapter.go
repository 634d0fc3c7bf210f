package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/transcript"
)

// DefaultNoSpeechTimeout bounds the wait for the first recognition result.
const DefaultNoSpeechTimeout = 8 * time.Second

// stopDrainTimeout bounds how long Stop waits for results still in flight.
const stopDrainTimeout = 3 * time.Second

// Adapter runs at most one listening session over a Recognizer.
type Adapter struct {
	recognizer      Recognizer
	logger          *slog.Logger
	noSpeechTimeout time.Duration

	mu        sync.Mutex
	listening bool
	gen       uint64
	stream    Stream
	cancel    context.CancelFunc
	done      chan struct{}
	tag       string
	segments  []string
	interim   string
	err       error
	subs      map[uint64]chan Event
	nextSub   uint64
}

// NewAdapter wraps recognizer. A nil recognizer yields an adapter that
// reports no support.
func NewAdapter(recognizer Recognizer, logger *slog.Logger, noSpeechTimeout time.Duration) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if noSpeechTimeout < 0 {
		noSpeechTimeout = 0
	}
	return &Adapter{
		recognizer:      recognizer,
		logger:          logger,
		noSpeechTimeout: noSpeechTimeout,
		subs:            map[uint64]chan Event{},
	}
}

// HasSupport reports whether a recognizer is wired.
func (a *Adapter) HasSupport() bool {
	return a.recognizer != nil
}

// Start begins listening in languageTag. It is a no-op while already listening.
func (a *Adapter) Start(ctx context.Context, languageTag string) error {
	if a.recognizer == nil {
		return ErrUnsupportedCapability
	}

	a.mu.Lock()
	if a.listening {
		a.mu.Unlock()
		return nil
	}
	a.gen++
	gen := a.gen
	a.listening = true
	a.tag = languageTag
	a.interim = ""
	a.err = nil
	streamCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	stream, err := a.recognizer.Open(streamCtx, languageTag)
	if err != nil {
		cancel()
		err = normalizeErr(err)
		a.finish(gen, err)
		return err
	}

	a.mu.Lock()
	if gen != a.gen || !a.listening {
		// stopped while opening
		a.mu.Unlock()
		_ = stream.Close()
		cancel()
		return nil
	}
	done := make(chan struct{})
	a.stream = stream
	a.done = done
	a.mu.Unlock()

	a.logger.Debug("speech listening started", "language", languageTag)
	go a.pump(streamCtx, gen, stream, done)
	return nil
}

// Stop ends the listening session and keeps results the recognizer
// flushes on close. It is idempotent.
func (a *Adapter) Stop() {
	a.mu.Lock()
	if !a.listening {
		a.mu.Unlock()
		return
	}
	stream, cancel, gen, done := a.stream, a.cancel, a.gen, a.done
	a.mu.Unlock()

	if stream != nil {
		_ = stream.Close()
	}
	if done != nil {
		timer := time.NewTimer(stopDrainTimeout)
		select {
		case <-done:
		case <-timer.C:
			a.logger.Warn("speech results did not drain before stop")
		}
		timer.Stop()
	}
	if cancel != nil {
		cancel()
	}
	a.finish(gen, nil)
}

// ResetTranscript clears accumulated and interim text.
func (a *Adapter) ResetTranscript() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.segments = nil
	a.interim = ""
}

// Transcript returns the accumulated final text, formatted for the
// language of the last session.
func (a *Adapter) Transcript() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return transcript.Assemble(a.segments, transcript.ForLanguage(a.tag))
}

// Interim returns the latest non-final text.
func (a *Adapter) Interim() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interim
}

// Listening reports whether a session is active.
func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

// Err returns the error that ended the last session, if any.
func (a *Adapter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Subscribe registers for events. Slow subscribers drop events rather
// than block recognition. cancel unregisters and closes the channel.
func (a *Adapter) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
			close(ch)
		})
	}
}

func (a *Adapter) pump(ctx context.Context, gen uint64, stream Stream, done chan struct{}) {
	defer close(done)

	var noSpeech <-chan time.Time
	if a.noSpeechTimeout > 0 {
		timer := time.NewTimer(a.noSpeechTimeout)
		defer timer.Stop()
		noSpeech = timer.C
	}

	results := stream.Results()
	for {
		select {
		case result, ok := <-results:
			if !ok {
				a.finish(gen, normalizeErr(stream.Err()))
				return
			}
			noSpeech = nil
			a.apply(gen, result)
		case <-noSpeech:
			_ = stream.Close()
			a.finish(gen, ErrNoSpeechDetected)
			return
		case <-ctx.Done():
			a.finish(gen, nil)
			return
		}
	}
}

func (a *Adapter) apply(gen uint64, result Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen || !a.listening {
		return
	}

	if result.Final {
		a.interim = ""
		if result.Text == "" {
			return
		}
		a.segments = append(a.segments, result.Text)
		a.publishLocked(Event{FinalDelta: result.Text})
		return
	}
	a.interim = result.Text
	a.publishLocked(Event{Interim: result.Text})
}

// finish closes the session for gen once; later calls are ignored.
func (a *Adapter) finish(gen uint64, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen || !a.listening {
		return
	}
	a.listening = false
	a.interim = ""
	a.stream = nil
	a.done = nil
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.err = err

	if err != nil {
		a.logger.Warn("speech listening ended with error", "error", err.Error())
		a.publishLocked(Event{Err: err})
	}
	a.publishLocked(Event{Done: true})
}

func (a *Adapter) publishLocked(ev Event) {
	for _, ch := range a.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func normalizeErr(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
