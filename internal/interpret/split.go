package interpret

import (
	"regexp"
	"strings"
)

const (
	// Sentinel is the canonical closing line of a conversational interview.
	Sentinel = "Thank you for your time. That's all the questions I have for you today."
	// EndMarker is the explicit end flag requested after the closing line.
	EndMarker = "[END]"
	// NextQuestionLabel introduces the next question in a conversational turn.
	NextQuestionLabel = "Next Question:"
	// FeedbackPlaceholder stands in for feedback that could not be located.
	FeedbackPlaceholder = "Could not parse feedback."
)

var (
	// labelPattern matches a next-question label opening a line, allowing
	// markdown decoration in front of it.
	labelPattern = regexp.MustCompile(`(?im)^[ \t>*#_-]*(?:next question:|here is your next question:|what is your next question\?)`)
	sentinelPattern = regexp.MustCompile(`(?i)thank you for your time`)
)

// Turn is one conversational response split into its parts.
type Turn struct {
	Feedback     string
	NextQuestion string
	// Concluded is set when the response ends the interview.
	Concluded bool
}

// IsConclusion reports whether text contains the closing phrase.
func IsConclusion(text string) bool {
	return sentinelPattern.MatchString(text)
}

// SplitTurn separates feedback from the next question in a conversational
// response. NextQuestion is empty only when a label has nothing after it
// and the response does not conclude the interview.
func SplitTurn(raw string) Turn {
	text := strings.TrimSpace(raw)
	ended := strings.Contains(text, EndMarker)
	if ended {
		text = strings.TrimSpace(strings.ReplaceAll(text, EndMarker, ""))
	}
	concluded := ended || IsConclusion(text)

	turn, ok := splitAtMarker(text)
	if !ok {
		turn, ok = splitAtLiteral(text)
	}
	if !ok {
		turn = Turn{Feedback: FeedbackPlaceholder, NextQuestion: text}
	}
	if IsConclusion(text) {
		turn.NextQuestion = Sentinel
	}
	turn.Concluded = concluded
	return turn
}

// splitAtMarker cuts at the earliest line-leading label or closing phrase.
func splitAtMarker(text string) (Turn, bool) {
	label := labelPattern.FindStringIndex(text)
	closing := sentinelPattern.FindStringIndex(text)

	switch {
	case label != nil && (closing == nil || label[0] <= closing[0]):
		return Turn{
			Feedback:     trimFeedback(text[:label[0]]),
			NextQuestion: trimQuestion(text[label[1]:]),
		}, true
	case closing != nil:
		return Turn{
			Feedback:     trimFeedback(text[:closing[0]]),
			NextQuestion: trimQuestion(text[closing[0]:]),
		}, true
	default:
		return Turn{}, false
	}
}

// splitAtLiteral handles a label embedded mid-line.
func splitAtLiteral(text string) (Turn, bool) {
	before, after, found := strings.Cut(text, NextQuestionLabel)
	if !found {
		return Turn{}, false
	}
	return Turn{
		Feedback:     trimFeedback(before),
		NextQuestion: trimQuestion(after),
	}, true
}

func trimFeedback(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), " \t\r\n*#_-")
}

func trimQuestion(s string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "*_ \t"))
}
