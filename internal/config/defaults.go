package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Generation: GenerationConfig{
			Backend:   BackendGemini,
			TimeoutMS: 60000,
		},
		Speech: SpeechConfig{
			Enable:               true,
			GRPC:                 "speech.googleapis.com:443",
			TLS:                  true,
			Auth:                 "adc",
			AutomaticPunctuation: true,
			NoSpeechTimeoutMS:    8000,
			Cues:                 true,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Session: SessionConfig{
			Language:           "en-US",
			QuizQuestions:      5,
			InterviewQuestions: 5,
		},
		Vocab: VocabConfig{
			GlobalSets: nil,
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
		Log:   LogConfig{Level: "info"},
		Debug: DebugConfig{},
	}
}
