package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSpeechPhrasesSortedAndHighestBoostWins(t *testing.T) {
	cfg := Default()
	cfg.Vocab.GlobalSets = []string{"core", "team"}
	cfg.Vocab.Sets["core"] = VocabSet{Name: "core", Boost: 10, Phrases: []string{"beta", "alpha"}}
	cfg.Vocab.Sets["team"] = VocabSet{Name: "team", Boost: 20, Phrases: []string{"alpha", "gamma"}}

	phrases, warnings, err := BuildSpeechPhrases(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, []SpeechPhrase{
		{Phrase: "alpha", Boost: 20},
		{Phrase: "beta", Boost: 10},
		{Phrase: "gamma", Boost: 20},
	}, phrases)
}

func TestValidateDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Generation.Backend = "claude" }, wantErr: "generation.backend"},
		{name: "zero timeout", mutate: func(c *Config) { c.Generation.TimeoutMS = 0 }, wantErr: "timeout_ms"},
		{name: "bad base url", mutate: func(c *Config) { c.Generation.BaseURL = "ftp://example.com" }, wantErr: "base_url"},
		{name: "unknown language", mutate: func(c *Config) { c.Session.Language = "tlh-QO" }, wantErr: "session.language"},
		{name: "too many quiz questions", mutate: func(c *Config) { c.Session.QuizQuestions = 21 }, wantErr: "quiz_questions"},
		{name: "zero interview questions", mutate: func(c *Config) { c.Session.InterviewQuestions = 0 }, wantErr: "interview_questions"},
		{name: "empty speech grpc", mutate: func(c *Config) { c.Speech.GRPC = " " }, wantErr: "speech.grpc"},
		{name: "unknown speech auth", mutate: func(c *Config) { c.Speech.Auth = "kerberos" }, wantErr: "speech.auth"},
		{name: "adc without tls", mutate: func(c *Config) { c.Speech.TLS = false }, wantErr: "requires speech.tls"},
		{name: "negative no-speech timeout", mutate: func(c *Config) { c.Speech.NoSpeechTimeoutMS = -1 }, wantErr: "no_speech_timeout_ms"},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
		{name: "invalid max phrases", mutate: func(c *Config) { c.Vocab.MaxPhrases = 0 }, wantErr: "vocab.max_phrases"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateSkipsSpeechChecksWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.Speech.Enable = false
	cfg.Speech.GRPC = ""
	cfg.Speech.Auth = ""

	_, err := Validate(cfg)
	require.NoError(t, err)
}
