package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// lowercaseAbbreviations stay lowercase even at sentence starts.
	lowercaseAbbreviations = map[string]struct{}{
		"e.g": {},
		"etc": {},
		"i.e": {},
		"vs":  {},
	}

	// nonTerminalAbbreviations are usually followed by more of the same
	// sentence, so their period is not a boundary.
	nonTerminalAbbreviations = map[string]struct{}{
		"e.g":  {},
		"i.e":  {},
		"cf":   {},
		"dr":   {},
		"mr":   {},
		"mrs":  {},
		"ms":   {},
		"prof": {},
		"sr":   {},
		"jr":   {},
		"fig":  {},
		"sec":  {},
		"min":  {},
		"hr":   {},
	}

	pronounIContraction = regexp.MustCompile(`\bi['’](?:m|d|ll|ve|re|s)\b`)
	pronounIWord        = regexp.MustCompile(`\bi\b`)
)

// capitalizeSentenceStarts upper-cases the first letter of the text and of
// every word following a sentence-ending mark and whitespace.
func capitalizeSentenceStarts(text string) string {
	runes := []rune(text)

	var out strings.Builder
	out.Grow(len(text))

	atStart := true
	afterBoundary := false
	sawSpace := false

	for i, r := range runes {
		switch {
		case atStart && unicode.IsLetter(r):
			if capitalizableAt(runes, i) {
				r = unicode.ToUpper(r)
			}
			atStart = false
		case afterBoundary && unicode.IsSpace(r):
			sawSpace = true
		case afterBoundary && unicode.IsLetter(r):
			if sawSpace && capitalizableAt(runes, i) {
				r = unicode.ToUpper(r)
			}
			afterBoundary, sawSpace = false, false
		case afterBoundary && isQuoteOrBracket(r):
			// keep waiting for a letter: `. "quoted`
		case afterBoundary:
			afterBoundary, sawSpace = false, false
		}

		out.WriteRune(r)

		switch r {
		case '.':
			afterBoundary, sawSpace = isBoundaryPeriod(runes, i), false
		case '!', '?':
			afterBoundary, sawSpace = true, false
		}
	}
	return out.String()
}

func isBoundaryPeriod(runes []rune, idx int) bool {
	if idx+1 < len(runes) {
		next := runes[idx+1]
		// decimals, versions, domains, and dotted abbreviations
		if unicode.IsLetter(next) || unicode.IsDigit(next) || next == '.' {
			return false
		}
	}
	token := strings.ToLower(tokenBefore(runes, idx))
	_, nonTerminal := nonTerminalAbbreviations[token]
	return !nonTerminal
}

// tokenBefore returns the letters and inner periods immediately before idx.
func tokenBefore(runes []rune, idx int) string {
	start := idx
	for start > 0 {
		r := runes[start-1]
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		start--
	}
	return strings.Trim(string(runes[start:idx]), ".")
}

func capitalizableAt(runes []rune, idx int) bool {
	end := idx
	for end < len(runes) && (unicode.IsLetter(runes[end]) || runes[end] == '.') {
		end++
	}
	token := strings.ToLower(strings.Trim(string(runes[idx:end]), "."))
	_, keepLower := lowercaseAbbreviations[token]
	return !keepLower
}

func isQuoteOrBracket(r rune) bool {
	switch r {
	case ')', ']', '}', '(', '[', '\'', '"', '’', '”', '“':
		return true
	default:
		return false
	}
}

// capitalizePronounI fixes "i", "i'm", "i've", and similar, leaving dotted
// tokens such as "i.e." alone.
func capitalizePronounI(text string) string {
	text = pronounIContraction.ReplaceAllStringFunc(text, func(match string) string {
		return "I" + match[1:]
	})

	matches := pronounIWord.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		out.WriteString(text[last:start])
		if partOfDottedToken(text, start, end) {
			out.WriteString(text[start:end])
		} else {
			out.WriteString("I")
		}
		last = end
	}
	out.WriteString(text[last:])
	return out.String()
}

func partOfDottedToken(text string, start int, end int) bool {
	if end+1 < len(text) && text[end] == '.' && isASCIILetter(text[end+1]) {
		return true
	}
	return start > 1 && text[start-1] == '.' && isASCIILetter(text[start-2])
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
