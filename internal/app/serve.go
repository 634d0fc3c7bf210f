package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/generation"
	"github.com/rbright/rehearse/internal/generation/gemini"
	"github.com/rbright/rehearse/internal/generation/openai"
	"github.com/rbright/rehearse/internal/indicator"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/pipeline"
	"github.com/rbright/rehearse/internal/session"
	"github.com/rbright/rehearse/internal/speech"
)

const (
	claimProbeTimeout = 180 * time.Millisecond
	claimRetries      = 8
)

// commandServe owns the runtime socket and the single practice session until
// ctx is cancelled.
func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Claim(ctx, socketPath, claimProbeTimeout, claimRetries)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: a session owner is already listening on %s\n", socketPath)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	generator, err := newGenerator(ctx, cfg.Generation, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "warning: generation backend unavailable: %v\n", err)
		logger.Warn("generation backend unavailable", "backend", cfg.Generation.Backend, "error", err.Error())
	}

	var dictation session.Dictation
	cues := indicator.NewPlayer(cfg.Speech.Cues, logger)
	defer cues.Wait()
	if cfg.Speech.Enable {
		recognizer := pipeline.NewRecognizer(cfg, logger)
		adapter := speech.NewAdapter(recognizer, logger, cfg.Speech.NoSpeechTimeout())
		cued, stopCues := newCuedDictation(adapter, cues)
		defer stopCues()
		dictation = cued
	}

	controller := session.NewController(logger, generator, dictation, session.Options{
		QuizQuestions:      cfg.Session.QuizQuestions,
		InterviewQuestions: cfg.Session.InterviewQuestions,
		DefaultLanguage:    cfg.Session.Language,
	})

	logger.Info("session owner listening",
		"socket", socketPath,
		"backend", cfg.Generation.Backend,
		"speech", cfg.Speech.Enable,
	)
	fmt.Fprintf(r.Stdout, "rehearse listening on %s (backend=%s, speech=%t)\n", socketPath, cfg.Generation.Backend, cfg.Speech.Enable)

	serveErr := ipc.Serve(ctx, listener, controller, ipc.WithLogger(logger))
	controller.Restart()
	if serveErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serveErr)
		return 1
	}
	logger.Info("session owner stopped")
	return 0
}

// newGenerator builds the configured generation backend. A nil generator
// with an error leaves the owner running; actions then report it.
func newGenerator(ctx context.Context, cfg config.GenerationConfig, logger *slog.Logger) (generation.Generator, error) {
	switch cfg.Backend {
	case config.BackendOpenAI:
		client, err := openai.New(openai.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout(),
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout(),
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
