package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type scanState int

const (
	inCode scanState = iota
	inString
	inEscape
	inLineComment
	inBlockComment
)

// normalizeJSONC turns JSONC into plain JSON. Comments and trailing commas
// are blanked with spaces so byte offsets, and therefore reported line and
// column numbers, still match the original document.
func normalizeJSONC(content string) (string, error) {
	out := []byte(content)
	state := inCode
	comma := -1 // offset of a comma that may turn out to be trailing

	for i := 0; i < len(out); i++ {
		ch := out[i]
		switch state {
		case inString:
			switch ch {
			case '\\':
				state = inEscape
			case '"':
				state = inCode
			}
		case inEscape:
			state = inString
		case inLineComment:
			if ch == '\n' || ch == '\r' {
				state = inCode
				continue
			}
			out[i] = ' '
		case inBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = inCode
				continue
			}
			if ch != '\n' && ch != '\r' && ch != '\t' {
				out[i] = ' '
			}
		case inCode:
			switch {
			case ch == '/' && i+1 < len(out) && out[i+1] == '/':
				out[i], out[i+1] = ' ', ' '
				i++
				state = inLineComment
			case ch == '/' && i+1 < len(out) && out[i+1] == '*':
				out[i], out[i+1] = ' ', ' '
				i++
				state = inBlockComment
			case ch == '}' || ch == ']':
				if comma >= 0 {
					out[comma] = ' '
				}
				comma = -1
			case ch == ',':
				comma = i
			case isJSONWhitespace(ch):
			default:
				comma = -1
				if ch == '"' {
					state = inString
				}
			}
		}
	}

	if state == inBlockComment {
		return "", errors.New("unterminated block comment in JSONC")
	}
	return string(out), nil
}

func isJSONWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t'
}

// expectEOF fails when the decoder holds more than one top-level value.
func expectEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return errors.New("multiple JSON values are not allowed")
	default:
		return err
	}
}

// locate prefixes JSON syntax and type errors with their line and column.
func locate(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := position(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// position converts a 1-based decoder offset into a line and column.
func position(content string, offset int64) (int, int) {
	end := min(max(int(offset)-1, 0), max(len(content)-1, 0))
	prefix := content[:end]
	line := 1 + strings.Count(prefix, "\n")
	col := len(prefix) - (strings.LastIndexByte(prefix, '\n') + 1) + 1
	return line, col
}
