package session

import (
	"errors"

	"github.com/rbright/rehearse/internal/generation"
	"github.com/rbright/rehearse/internal/interpret"
	"github.com/rbright/rehearse/internal/speech"
)

// UserMessage maps an error onto the text shown to the candidate.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, generation.ErrAuth):
		return "Invalid API key. Please check your configuration."
	case errors.Is(err, generation.ErrTransport):
		return "Network error. Please check your internet connection and try again."
	case errors.Is(err, generation.ErrRateLimit):
		return "You've exceeded the request limit. Please wait a moment and try again."
	case errors.Is(err, generation.ErrSafetyBlocked):
		return "The response was blocked due to safety settings. Please try rephrasing your input or choose another topic."
	case errors.Is(err, generation.ErrService):
		return "An unexpected error occurred with the AI service. Please try again later."
	case errors.Is(err, ErrGeneratorUnavailable):
		return "No AI service is configured. Set an API key and restart the session owner."
	case errors.Is(err, interpret.ErrEmptyResponse), errors.Is(err, interpret.ErrMalformedResponse):
		return "The AI returned invalid data. Please try again."
	case errors.Is(err, ErrNoQuestions):
		return "The AI failed to generate questions for this topic. Please try another one."
	case errors.Is(err, speech.ErrUnsupportedCapability):
		return "Speech recognition is not available. Check the audio and speech settings or type your answer."
	case errors.Is(err, speech.ErrPermissionDenied):
		return "Microphone or speech service access was denied. Check permissions and try again."
	case errors.Is(err, speech.ErrNoSpeechDetected):
		return "No speech was detected. Please try again."
	case errors.Is(err, ErrBusy):
		return "Please wait for the current request to finish."
	case errors.Is(err, ErrStaleResponse):
		return "The session was restarted before the response arrived."
	default:
		return err.Error()
	}
}
