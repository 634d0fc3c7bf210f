package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
)

// document mirrors the on-disk JSONC schema. Pointer fields distinguish
// "absent" from zero values so only keys present in the file override base.
type document struct {
	Generation *struct {
		Backend   *string `json:"backend"`
		Model     *string `json:"model"`
		APIKey    *string `json:"api_key"`
		BaseURL   *string `json:"base_url"`
		TimeoutMS *int    `json:"timeout_ms"`
	} `json:"generation"`
	Speech *struct {
		Enable               *bool   `json:"enable"`
		GRPC                 *string `json:"grpc"`
		TLS                  *bool   `json:"tls"`
		Auth                 *string `json:"auth"`
		Model                *string `json:"model"`
		AutomaticPunctuation *bool   `json:"automatic_punctuation"`
		NoSpeechTimeoutMS    *int    `json:"no_speech_timeout_ms"`
		Cues                 *bool   `json:"cues"`
	} `json:"speech"`
	Audio *struct {
		Input    *string `json:"input"`
		Fallback *string `json:"fallback"`
	} `json:"audio"`
	Session *struct {
		Language           *string `json:"language"`
		QuizQuestions      *int    `json:"quiz_questions"`
		InterviewQuestions *int    `json:"interview_questions"`
	} `json:"session"`
	Vocab *struct {
		Global     *jsoncStringList         `json:"global"`
		MaxPhrases *int                     `json:"max_phrases"`
		Sets       map[string]documentVocab `json:"sets"`
	} `json:"vocab"`
	Log *struct {
		Level *string `json:"level"`
	} `json:"log"`
	Debug *struct {
		AudioDump *bool `json:"audio_dump"`
		GRPCDump  *bool `json:"grpc_dump"`
	} `json:"debug"`
}

type documentVocab struct {
	Boost   *float64 `json:"boost"`
	Phrases []string `json:"phrases"`
}

// jsoncStringList accepts either ["a","b"] or "a, b".
type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return errors.New("expected string array or comma-delimited string")
	}
	*l = nonEmpty(strings.Split(joined, ","))
	return nil
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		return Config{}, nil, locate(normalized, err)
	}
	if err := expectEOF(decoder); err != nil {
		return Config{}, nil, locate(normalized, err)
	}

	cfg := base
	if err := doc.merge(&cfg); err != nil {
		return Config{}, nil, err
	}
	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

// merge overlays every key present in doc onto cfg.
func (doc document) merge(cfg *Config) error {
	if g := doc.Generation; g != nil {
		override(&cfg.Generation.Backend, lowered(g.Backend))
		override(&cfg.Generation.Model, trimmed(g.Model))
		override(&cfg.Generation.APIKey, trimmed(g.APIKey))
		override(&cfg.Generation.BaseURL, trimmed(g.BaseURL))
		override(&cfg.Generation.TimeoutMS, g.TimeoutMS)
	}

	if s := doc.Speech; s != nil {
		override(&cfg.Speech.Enable, s.Enable)
		override(&cfg.Speech.GRPC, trimmed(s.GRPC))
		override(&cfg.Speech.TLS, s.TLS)
		override(&cfg.Speech.Auth, trimmed(s.Auth))
		override(&cfg.Speech.Model, trimmed(s.Model))
		override(&cfg.Speech.AutomaticPunctuation, s.AutomaticPunctuation)
		override(&cfg.Speech.NoSpeechTimeoutMS, s.NoSpeechTimeoutMS)
		override(&cfg.Speech.Cues, s.Cues)
	}

	if a := doc.Audio; a != nil {
		override(&cfg.Audio.Input, a.Input)
		override(&cfg.Audio.Fallback, a.Fallback)
	}

	if s := doc.Session; s != nil {
		override(&cfg.Session.Language, trimmed(s.Language))
		override(&cfg.Session.QuizQuestions, s.QuizQuestions)
		override(&cfg.Session.InterviewQuestions, s.InterviewQuestions)
	}

	if v := doc.Vocab; v != nil {
		if v.Global != nil {
			cfg.Vocab.GlobalSets = nonEmpty(*v.Global)
		}
		override(&cfg.Vocab.MaxPhrases, v.MaxPhrases)
		if v.Sets != nil {
			sets := maps.Clone(cfg.Vocab.Sets)
			if sets == nil {
				sets = make(map[string]VocabSet, len(v.Sets))
			}
			for rawName, raw := range v.Sets {
				name := strings.TrimSpace(rawName)
				if name == "" {
					return fmt.Errorf("vocab.sets contains an empty set name")
				}
				set := VocabSet{Name: name, Phrases: append([]string(nil), raw.Phrases...)}
				override(&set.Boost, raw.Boost)
				sets[name] = set
			}
			cfg.Vocab.Sets = sets
		}
	}

	if l := doc.Log; l != nil {
		override(&cfg.Log.Level, lowered(l.Level))
	}

	if d := doc.Debug; d != nil {
		override(&cfg.Debug.EnableAudioDump, d.AudioDump)
		override(&cfg.Debug.EnableGRPCDump, d.GRPCDump)
	}
	return nil
}

func override[T any](dst *T, value *T) {
	if value != nil {
		*dst = *value
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}

func lowered(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*value))
	return &v
}
