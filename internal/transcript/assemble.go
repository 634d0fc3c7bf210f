// Package transcript assembles and normalizes recognized speech segments
// into a dictated answer.
package transcript

import (
	"strings"
	"unicode"
)

// Options controls transcript assembly formatting behavior.
type Options struct {
	CapitalizeSentences bool
	// CapitalizePronounI upper-cases the English pronoun "i" and its
	// contractions. Only meaningful for English dictation.
	CapitalizePronounI bool
}

// ForLanguage returns the formatting options suited to a locale tag such
// as "en-US".
func ForLanguage(tag string) Options {
	return Options{
		CapitalizeSentences: true,
		CapitalizePronounI:  strings.HasPrefix(strings.ToLower(tag), "en"),
	}
}

// Assemble joins final segments, collapsing whitespace. Segments in scripts
// written without spaces (Japanese, Chinese) are joined directly.
func Assemble(segments []string, opts Options) string {
	var b strings.Builder
	for _, segment := range segments {
		normalized := strings.Join(strings.Fields(segment), " ")
		if normalized == "" {
			continue
		}
		if b.Len() > 0 && needsSpace(b.String(), normalized) {
			b.WriteByte(' ')
		}
		b.WriteString(normalized)
	}

	text := b.String()
	if text == "" {
		return ""
	}
	if opts.CapitalizeSentences {
		text = capitalizeSentenceStarts(text)
	}
	if opts.CapitalizePronounI {
		text = capitalizePronounI(text)
	}
	return text
}

func needsSpace(prev string, next string) bool {
	last := []rune(prev)
	first := []rune(next)
	return !unspaced(last[len(last)-1]) || !unspaced(first[0])
}

func unspaced(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana) ||
		(r >= 0x3000 && r <= 0x303F) // CJK punctuation
}
