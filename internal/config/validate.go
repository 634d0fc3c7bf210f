package config

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/rbright/rehearse/internal/locale"
)

// Generation backends.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
)

const maxQuestions = 20

var (
	speechAuthModes = []string{"none", "adc"}
	logLevels       = []string{"debug", "info", "warn", "error"}
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	backend := strings.ToLower(strings.TrimSpace(cfg.Generation.Backend))
	if backend != BackendGemini && backend != BackendOpenAI {
		return nil, fmt.Errorf("generation.backend must be one of: %s, %s", BackendGemini, BackendOpenAI)
	}
	if cfg.Generation.TimeoutMS <= 0 {
		return nil, fmt.Errorf("generation.timeout_ms must be > 0")
	}
	if raw := strings.TrimSpace(cfg.Generation.BaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("generation.base_url must be an http(s) URL")
		}
	}

	if _, err := locale.Lookup(cfg.Session.Language); err != nil {
		return nil, fmt.Errorf("session.language: %w", err)
	}
	if cfg.Session.QuizQuestions <= 0 || cfg.Session.QuizQuestions > maxQuestions {
		return nil, fmt.Errorf("session.quiz_questions must be between 1 and %d", maxQuestions)
	}
	if cfg.Session.InterviewQuestions <= 0 || cfg.Session.InterviewQuestions > maxQuestions {
		return nil, fmt.Errorf("session.interview_questions must be between 1 and %d", maxQuestions)
	}

	if cfg.Speech.Enable {
		if strings.TrimSpace(cfg.Speech.GRPC) == "" {
			return nil, fmt.Errorf("speech.grpc must not be empty when speech.enable=true")
		}
		auth := strings.ToLower(strings.TrimSpace(cfg.Speech.Auth))
		if !slices.Contains(speechAuthModes, auth) {
			return nil, fmt.Errorf("speech.auth must be one of: %s", strings.Join(speechAuthModes, ", "))
		}
		if auth == "adc" && !cfg.Speech.TLS {
			return nil, fmt.Errorf("speech.auth=adc requires speech.tls=true")
		}
	}
	if cfg.Speech.NoSpeechTimeoutMS < 0 {
		return nil, fmt.Errorf("speech.no_speech_timeout_ms must be >= 0")
	}

	if !slices.Contains(logLevels, strings.ToLower(strings.TrimSpace(cfg.Log.Level))) {
		return nil, fmt.Errorf("log.level must be one of: %s", strings.Join(logLevels, ", "))
	}

	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}
	_, vocabWarnings, err := BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

// BuildSpeechPhrases merges enabled vocab sets into deterministic recognizer phrase payloads.
func BuildSpeechPhrases(cfg Config) ([]SpeechPhrase, []Warning, error) {
	enabledSets := cfg.Vocab.GlobalSets
	if len(enabledSets) == 0 {
		return nil, nil, nil
	}

	type candidate struct {
		boost float64
		from  string
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]candidate)

	for _, name := range enabledSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			if existing, exists := selected[phrase]; exists {
				if set.Boost > existing.boost {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; using higher boost %.2f", phrase, existing.from, name, set.Boost)})
					selected[phrase] = candidate{boost: set.Boost, from: name}
				}
				continue
			}
			selected[phrase] = candidate{boost: set.Boost, from: name}
		}
	}

	if len(selected) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(selected), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]SpeechPhrase, 0, len(selected))
	for phrase, c := range selected {
		phrases = append(phrases, SpeechPhrase{Phrase: phrase, Boost: float32(c.boost)})
	}

	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].Phrase == phrases[j].Phrase {
			return phrases[i].Boost < phrases[j].Boost
		}
		return phrases[i].Phrase < phrases[j].Phrase
	})

	return phrases, warnings, nil
}
