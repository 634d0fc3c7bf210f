// Package config resolves, parses, validates, and defaults rehearse configuration.
package config

import "time"

// Config is the fully materialized runtime configuration.
type Config struct {
	Generation GenerationConfig
	Speech     SpeechConfig
	Audio      AudioConfig
	Session    SessionConfig
	Vocab      VocabConfig
	Log        LogConfig
	Debug      DebugConfig
}

// GenerationConfig selects and configures the generative backend.
type GenerationConfig struct {
	Backend   string
	Model     string
	APIKey    string
	BaseURL   string
	TimeoutMS int
}

// Timeout returns the per-request generation timeout.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMS) * time.Millisecond
}

// SpeechConfig controls the streaming recognizer used for dictation.
type SpeechConfig struct {
	Enable               bool
	GRPC                 string
	TLS                  bool
	Auth                 string
	Model                string
	AutomaticPunctuation bool
	NoSpeechTimeoutMS    int
	// Cues plays short tones when dictation starts, stops, or fails.
	Cues bool
}

// NoSpeechTimeout returns how long to wait for the first result.
func (s SpeechConfig) NoSpeechTimeout() time.Duration {
	return time.Duration(s.NoSpeechTimeoutMS) * time.Millisecond
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// SessionConfig holds practice defaults.
type SessionConfig struct {
	Language           string
	QuizQuestions      int
	InterviewQuestions int
}

// VocabConfig controls enabled speech phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Name    string
	Boost   float64
	Phrases []string
}

// LogConfig controls the log file level.
type LogConfig struct {
	Level string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
	EnableGRPCDump  bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// SpeechPhrase is the normalized phrase payload sent to the recognizer.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}
