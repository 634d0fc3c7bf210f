package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rbright/rehearse/internal/generation"
	"github.com/rbright/rehearse/internal/interpret"
	"github.com/rbright/rehearse/internal/speech"
)

// Dictation is the session-facing subset of speech.Adapter.
type Dictation interface {
	HasSupport() bool
	Start(ctx context.Context, languageTag string) error
	Stop()
	Listening() bool
	Transcript() string
	ResetTranscript()
}

// noopDictation preserves session flow when no recognizer is wired.
type noopDictation struct{}

func (noopDictation) HasSupport() bool                     { return false }
func (noopDictation) Start(context.Context, string) error { return speech.ErrUnsupportedCapability }
func (noopDictation) Stop()                                {}
func (noopDictation) Listening() bool                      { return false }
func (noopDictation) Transcript() string                   { return "" }
func (noopDictation) ResetTranscript()                     {}

// ToggleListen starts dictation in the session language, or stops it and
// submits the dictated transcript as the answer. A transcript whose
// submission failed is kept, and the next toggle resubmits it instead of
// listening again.
func (c *Controller) ToggleListen(ctx context.Context) (Snapshot, error) {
	if !c.dictation.HasSupport() {
		return c.Snapshot(), speech.ErrUnsupportedCapability
	}

	if c.dictation.Listening() {
		c.dictation.Stop()
		text := strings.TrimSpace(c.dictation.Transcript())
		if text == "" {
			c.dictation.ResetTranscript()
			return c.Snapshot(), speech.ErrNoSpeechDetected
		}
		return c.submitDictated(ctx, text)
	}
	if text := strings.TrimSpace(c.dictation.Transcript()); text != "" {
		return c.submitDictated(ctx, text)
	}

	c.mu.RLock()
	p, err := c.activeLocked(KindQuiz, KindInterview, KindConversation)
	var tag string
	if err == nil {
		tag = p.lang.SpeechTag
	}
	c.mu.RUnlock()
	if err != nil {
		return c.Snapshot(), err
	}

	c.dictation.ResetTranscript()
	if err := c.dictation.Start(context.WithoutCancel(ctx), tag); err != nil {
		return c.Snapshot(), err
	}
	c.logger.Info("dictation started", "session_id", p.id, "language", tag)
	return c.Snapshot(), nil
}

func (c *Controller) submitDictated(ctx context.Context, text string) (Snapshot, error) {
	snap, err := c.SubmitAnswer(ctx, text)
	if err != nil && retryable(err) {
		c.logger.Warn("dictated answer kept for retry", "session_id", snap.SessionID, "error", err.Error())
		return snap, err
	}
	c.dictation.ResetTranscript()
	return snap, err
}

// retryable reports whether resubmitting the same answer may succeed.
func retryable(err error) bool {
	return errors.Is(err, ErrBusy) ||
		errors.Is(err, generation.ErrTransport) ||
		errors.Is(err, generation.ErrRateLimit) ||
		errors.Is(err, generation.ErrService) ||
		errors.Is(err, interpret.ErrEmptyResponse) ||
		errors.Is(err, interpret.ErrMalformedResponse)
}

// ParseChoice converts "1"-"9" or "A"-"Z" into a zero-based option index.
func ParseChoice(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n - 1, nil
	}
	raw = strings.TrimSuffix(strings.TrimSuffix(raw, ")"), ".")
	if len(raw) == 1 {
		letter := strings.ToUpper(raw)[0]
		if letter >= 'A' && letter <= 'Z' {
			return int(letter - 'A'), nil
		}
	}
	return 0, fmt.Errorf("%w: %q is not an option number or letter", ErrOptionOutOfRange, raw)
}
