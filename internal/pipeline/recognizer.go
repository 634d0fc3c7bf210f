// Package pipeline wires Pulse capture to the streaming recognizer and
// exposes the result as a speech.Recognizer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/rehearse/internal/asr"
	"github.com/rbright/rehearse/internal/audio"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/speech"
)

const (
	dialTimeout  = 3 * time.Second
	closeTimeout = 20 * time.Second
)

type captureSource interface {
	Chunks() <-chan []byte
	Stop() error
	BytesCaptured() int64
	RawPCM() []byte
}

type recognitionStream interface {
	Updates() <-chan asr.Update
	Err() error
	SendAudio(chunk []byte) error
	CloseAndCollect(ctx context.Context) ([]string, time.Duration, error)
	Cancel() error
}

// Recognizer opens one capture -> recognition pipeline per listening session.
type Recognizer struct {
	cfg    config.Config
	logger *slog.Logger

	selectDevice func(ctx context.Context, input, fallback string) (audio.Selection, error)
	dial         func(ctx context.Context, cfg asr.StreamConfig) (recognitionStream, error)
	startCapture func(ctx context.Context, device audio.Device) (captureSource, error)
}

// NewRecognizer constructs a pipeline recognizer from runtime config.
func NewRecognizer(cfg config.Config, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recognizer{
		cfg:          cfg,
		logger:       logger,
		selectDevice: audio.SelectDevice,
		dial: func(ctx context.Context, cfg asr.StreamConfig) (recognitionStream, error) {
			return asr.DialStream(ctx, cfg)
		},
		startCapture: func(ctx context.Context, device audio.Device) (captureSource, error) {
			return audio.StartCapture(ctx, device, audio.CaptureOptions{KeepPCM: cfg.Debug.EnableAudioDump})
		},
	}
}

var _ speech.Recognizer = (*Recognizer)(nil)

// Open resolves the input device, dials the recognizer, and starts capture.
// Capture and recognition end when ctx is done.
func (r *Recognizer) Open(ctx context.Context, languageTag string) (speech.Stream, error) {
	selection, err := r.selectDevice(ctx, r.cfg.Audio.Input, r.cfg.Audio.Fallback)
	if err != nil {
		return nil, classifyAudioErr(err)
	}
	if selection.Warning != "" {
		r.logger.Warn(selection.Warning)
	}

	speechPhrases, _, err := config.BuildSpeechPhrases(r.cfg)
	if err != nil {
		return nil, fmt.Errorf("build speech contexts: %w", err)
	}
	phrases := make([]asr.Phrase, 0, len(speechPhrases))
	for _, phrase := range speechPhrases {
		phrases = append(phrases, asr.Phrase{Phrase: phrase.Phrase, Boost: phrase.Boost})
	}

	var debugFile *os.File
	if r.cfg.Debug.EnableGRPCDump {
		debugFile, err = openDump("grpc", "json")
		if err != nil {
			return nil, err
		}
	}

	streamCfg := asr.StreamConfig{
		Endpoint:             r.cfg.Speech.GRPC,
		TLS:                  r.cfg.Speech.TLS,
		Auth:                 r.cfg.Speech.Auth,
		LanguageCode:         languageTag,
		Model:                r.cfg.Speech.Model,
		AutomaticPunctuation: r.cfg.Speech.AutomaticPunctuation,
		Phrases:              phrases,
		DialTimeout:          dialTimeout,
	}
	if debugFile != nil {
		streamCfg.DebugResponseSinkJSON = debugFile
	}

	recognition, err := r.dial(ctx, streamCfg)
	if err != nil {
		closeFile(debugFile)
		return nil, classifyRecognitionErr(fmt.Errorf("dial speech service: %w", err))
	}

	capture, err := r.startCapture(ctx, selection.Device)
	if err != nil {
		_ = recognition.Cancel()
		closeFile(debugFile)
		return nil, classifyAudioErr(err)
	}

	r.logger.Debug("speech pipeline started",
		"device", selection.Device.Label(),
		"language", languageTag,
		"phrases", len(phrases),
	)

	s := newStream(r.logger, capture, recognition, selection.Device.Label())
	s.debugFile = debugFile
	s.dumpAudio = r.cfg.Debug.EnableAudioDump
	s.run(ctx)
	return s, nil
}

// classifyAudioErr maps capture setup failures onto speech errors.
func classifyAudioErr(err error) error {
	if errors.Is(err, audio.ErrAccessDenied) {
		return errors.Join(speech.ErrPermissionDenied, err)
	}
	return errors.Join(speech.ErrUnsupportedCapability, err)
}

// classifyRecognitionErr maps recognizer failures onto speech errors.
func classifyRecognitionErr(err error) error {
	if err == nil {
		return nil
	}
	if asr.IsPermissionDenied(err) {
		return errors.Join(speech.ErrPermissionDenied, err)
	}
	return err
}

func closeFile(file *os.File) {
	if file != nil {
		_ = file.Close()
	}
}
