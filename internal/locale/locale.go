// Package locale holds the closed set of practice languages.
package locale

import (
	"fmt"
	"sort"
	"strings"
)

// Code is a BCP-47 style language code such as "en-US".
type Code string

// DefaultCode is used when no language is configured.
const DefaultCode Code = "en-US"

// Language describes one selectable practice language.
type Language struct {
	Code Code
	// Name is the display name embedded in prompts.
	Name string
	// SpeechTag is the locale passed to the speech recognizer.
	SpeechTag string
}

var registry = map[Code]Language{
	"en-US": {Code: "en-US", Name: "English", SpeechTag: "en-US"},
	"es-ES": {Code: "es-ES", Name: "Español", SpeechTag: "es-ES"},
	"fr-FR": {Code: "fr-FR", Name: "Français", SpeechTag: "fr-FR"},
	"de-DE": {Code: "de-DE", Name: "Deutsch", SpeechTag: "de-DE"},
	"ja-JP": {Code: "ja-JP", Name: "日本語", SpeechTag: "ja-JP"},
	"rw-RW": {Code: "rw-RW", Name: "Kinyarwanda", SpeechTag: "rw-RW"},
}

// Lookup returns the language registered under code.
// Matching ignores case and accepts "_" as a separator.
func Lookup(code string) (Language, error) {
	normalized := normalize(code)
	if normalized == "" {
		return Language{}, fmt.Errorf("language code is required")
	}
	for key, lang := range registry {
		if strings.EqualFold(string(key), normalized) {
			return lang, nil
		}
	}
	return Language{}, fmt.Errorf("unsupported language %q (supported: %s)", code, strings.Join(codes(), ", "))
}

// MustLookup is Lookup for codes known at compile time.
func MustLookup(code Code) Language {
	lang, err := Lookup(string(code))
	if err != nil {
		panic(err)
	}
	return lang
}

// Default returns the default language entry.
func Default() Language {
	return registry[DefaultCode]
}

// All returns every registered language ordered by code.
func All() []Language {
	out := make([]Language, 0, len(registry))
	for _, lang := range registry {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func codes() []string {
	all := All()
	out := make([]string, 0, len(all))
	for _, lang := range all {
		out = append(out, string(lang.Code))
	}
	return out
}

func normalize(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
}
