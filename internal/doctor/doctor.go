// Package doctor runs runtime readiness diagnostics for config, the
// generation backend, audio, and the speech service.
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/asr"
	"github.com/rbright/rehearse/internal/audio"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/locale"
)

const speechProbeTimeout = 3 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

type selectFunc func(ctx context.Context, input string, fallback string) (audio.Selection, error)

type probeFunc func(ctx context.Context, cfg asr.StreamConfig) error

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	return run(ctx, loaded, audio.SelectDevice, asr.Probe)
}

func run(ctx context.Context, loaded config.Loaded, selectDevice selectFunc, probe probeFunc) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded), checkAPIKey(cfg.Generation), checkLanguage(cfg.Session.Language)}

	if !cfg.Speech.Enable {
		checks = append(checks, Check{Name: "speech", Pass: true, Message: "disabled; answers are typed"})
		return Report{Checks: checks}
	}

	checks = append(checks, checkAudioSelection(ctx, cfg, selectDevice))
	checks = append(checks, checkSpeechReady(ctx, cfg, probe))
	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", loaded.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", loaded.Path)}
}

// checkAPIKey reports whether the generation backend has credentials, without
// echoing the key itself.
func checkAPIKey(cfg config.GenerationConfig) Check {
	name := "generation." + cfg.Backend
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return Check{Name: name, Pass: false, Message: "api key is empty"}
	}
	model := cfg.Model
	if model == "" {
		model = "default model"
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("api key %s configured for %s", maskKey(key), model)}
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func checkLanguage(code string) Check {
	lang, err := locale.Lookup(code)
	if err != nil {
		return Check{Name: "session.language", Pass: false, Message: err.Error()}
	}
	return Check{
		Name:    "session.language",
		Pass:    true,
		Message: fmt.Sprintf("%s (%s), speech locale %s", lang.Name, lang.Code, lang.SpeechTag),
	}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config, selectDevice selectFunc) Check {
	selection, err := selectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkSpeechReady dials the configured speech endpoint and waits for readiness.
func checkSpeechReady(ctx context.Context, cfg config.Config, probe probeFunc) Check {
	endpoint := strings.TrimSpace(cfg.Speech.GRPC)
	if endpoint == "" {
		return Check{Name: "speech.grpc", Pass: false, Message: "speech.grpc is empty"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, speechProbeTimeout)
	defer cancel()

	err := probe(probeCtx, asr.StreamConfig{
		Endpoint:    endpoint,
		TLS:         cfg.Speech.TLS,
		Auth:        cfg.Speech.Auth,
		DialTimeout: speechProbeTimeout,
	})
	if err != nil {
		if asr.IsPermissionDenied(err) {
			return Check{Name: "speech.grpc", Pass: false, Message: fmt.Sprintf("credentials rejected for %s: %v", endpoint, err)}
		}
		return Check{Name: "speech.grpc", Pass: false, Message: fmt.Sprintf("%s not ready: %v", endpoint, err)}
	}
	return Check{Name: "speech.grpc", Pass: true, Message: fmt.Sprintf("ready at %s", endpoint)}
}
