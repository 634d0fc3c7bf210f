package app

import (
	"context"

	"github.com/rbright/rehearse/internal/speech"
)

type cuePlayer interface {
	ListeningStarted()
	ListeningStopped()
	Failed()
}

// cuedDictation plays audio cues around a speech.Adapter's listening
// sessions. Failures, including no-speech timeouts that end a session on
// their own, are cued from the adapter's event stream.
type cuedDictation struct {
	*speech.Adapter
	cues cuePlayer
}

// newCuedDictation returns the decorated adapter and a func that stops
// watching for failures.
func newCuedDictation(adapter *speech.Adapter, cues cuePlayer) (*cuedDictation, func()) {
	events, cancel := adapter.Subscribe(16)
	go func() {
		for ev := range events {
			if ev.Err != nil {
				cues.Failed()
			}
		}
	}()
	return &cuedDictation{Adapter: adapter, cues: cues}, cancel
}

func (d *cuedDictation) Start(ctx context.Context, languageTag string) error {
	if d.Adapter.Listening() {
		return nil
	}
	if err := d.Adapter.Start(ctx, languageTag); err != nil {
		return err
	}
	d.cues.ListeningStarted()
	return nil
}

func (d *cuedDictation) Stop() {
	if !d.Adapter.Listening() {
		return
	}
	d.Adapter.Stop()
	if d.Adapter.Err() == nil {
		d.cues.ListeningStopped()
	}
}
