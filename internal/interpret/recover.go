package interpret

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// candidates returns the raw text plus progressively more aggressive
// recoveries: fenced block contents, then the first balanced JSON value.
func candidates(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	out := []string{trimmed}
	if inner, ok := stripFence(trimmed); ok {
		out = append(out, inner)
	}
	if island, ok := jsonIsland(trimmed); ok {
		out = append(out, island)
	}
	return dedupe(out)
}

// stripFence returns the contents of the first markdown code fence.
func stripFence(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	// skip an info string such as "json"
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// jsonIsland returns the first balanced object or array in text.
func jsonIsland(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	for start >= 0 {
		if end, ok := balancedEnd(text, start); ok {
			return text[start : end+1], true
		}
		next := strings.IndexAny(text[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
			if depth < 0 {
				return 0, false
			}
		}
	}
	return 0, false
}

// decodeList decodes a JSON array, accepting an object wrapping exactly one
// array value such as {"questions": [...]}.
func decodeList[T any](text string) ([]T, error) {
	var items []T
	err := json.Unmarshal([]byte(text), &items)
	if err == nil {
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if json.Unmarshal([]byte(text), &wrapper) != nil {
		return nil, err
	}
	var inner json.RawMessage
	found := 0
	for _, value := range wrapper {
		if v := bytes.TrimSpace(value); len(v) > 0 && v[0] == '[' {
			inner = v
			found++
		}
	}
	if found != 1 {
		return nil, errors.New("expected a JSON array")
	}
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// decodeObject decodes a JSON object, accepting a single-key wrapper around it
// when the outer object lacks every expected field.
func decodeObject[T any](text string, fields ...string) (T, error) {
	var zero T
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return zero, err
	}
	if len(probe) == 1 && !hasAny(probe, fields) {
		for _, value := range probe {
			if v := bytes.TrimSpace(value); len(v) > 0 && v[0] == '{' {
				text = string(v)
			}
		}
	}

	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return zero, err
	}
	return out, nil
}

func hasAny(m map[string]json.RawMessage, fields []string) bool {
	for _, f := range fields {
		if _, ok := m[f]; ok {
			return true
		}
	}
	return false
}

func dedupe(values []string) []string {
	out := values[:0]
	seen := map[string]struct{}{}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
