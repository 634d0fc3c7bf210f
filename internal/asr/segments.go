package asr

import "strings"

// mergeSegment folds transcript into segments and returns the newly
// committed text. Continuations of the last segment extend it in place.
func mergeSegment(segments []string, transcript string) ([]string, string) {
	transcript = cleanSegment(transcript)
	if transcript == "" {
		return segments, ""
	}
	if len(segments) == 0 {
		return append(segments, transcript), transcript
	}

	last := cleanSegment(segments[len(segments)-1])
	switch {
	case transcript == last:
		return segments, ""
	case strings.HasPrefix(transcript, last):
		segments[len(segments)-1] = transcript
		return segments, strings.TrimSpace(transcript[len(last):])
	case strings.HasPrefix(last, transcript):
		return segments, ""
	default:
		return append(segments, transcript), transcript
	}
}

// isInterimContinuation decides whether an interim update extends prior speech.
func isInterimContinuation(previous string, current string) bool {
	previous = cleanSegment(previous)
	current = cleanSegment(current)
	if previous == "" || current == "" || previous == current {
		return true
	}
	if strings.HasPrefix(current, previous) || strings.HasPrefix(previous, current) {
		return true
	}

	prevWords := strings.Fields(previous)
	currWords := strings.Fields(current)
	shorter := min(len(prevWords), len(currWords))
	if shorter == 0 {
		return true
	}
	return commonPrefixWords(prevWords, currWords)*2 >= shorter
}

func commonPrefixWords(left []string, right []string) int {
	limit := min(len(left), len(right))
	count := 0
	for i := 0; i < limit; i++ {
		if left[i] != right[i] {
			break
		}
		count++
	}
	return count
}

// cleanSegment normalizes transcript whitespace.
func cleanSegment(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
