package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrTransport indicates the service could not be reached.
	ErrTransport = errors.New("generation service unreachable")
	// ErrAuth indicates the credential was rejected.
	ErrAuth = errors.New("generation credential rejected")
	// ErrRateLimit indicates the request quota was exhausted.
	ErrRateLimit = errors.New("generation rate limit exceeded")
	// ErrSafetyBlocked indicates the service refused the content.
	ErrSafetyBlocked = errors.New("generation blocked by safety policy")
	// ErrService covers every other service-side failure.
	ErrService = errors.New("generation service failure")
)

// Error carries a classified generation failure.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the error kind so errors.Is(err, ErrAuth) works.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FromStatus classifies an HTTP status and message returned by a backend.
func FromStatus(status int, message string) error {
	kind := kindFromMessage(message)
	if kind == nil {
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			kind = ErrAuth
		case status == http.StatusTooManyRequests:
			kind = ErrRateLimit
		default:
			kind = ErrService
		}
	}
	return &Error{Kind: kind, StatusCode: status, Message: strings.TrimSpace(message)}
}

// Classify maps an arbitrary error onto one of the generation kinds.
// Errors already carrying a kind are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrTransport, ErrAuth, ErrRateLimit, ErrSafetyBlocked, ErrService} {
		if errors.Is(err, kind) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrTransport, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: ErrTransport, Err: err}
	}
	if kind := kindFromMessage(err.Error()); kind != nil {
		return &Error{Kind: kind, Err: err}
	}
	return &Error{Kind: ErrService, Err: err}
}

// kindFromMessage recognizes failure text that service SDKs surface without
// a usable status code.
func kindFromMessage(message string) error {
	msg := strings.ToLower(message)
	switch {
	case msg == "":
		return nil
	case strings.Contains(msg, "api key not valid"), strings.Contains(msg, "api key is invalid"), strings.Contains(msg, "invalid api key"):
		return ErrAuth
	case strings.Contains(msg, "failed to fetch"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return ErrTransport
	case strings.Contains(msg, "blocked") && (strings.Contains(msg, "safety") || strings.Contains(msg, "policy")):
		return ErrSafetyBlocked
	case strings.Contains(msg, "resource has been exhausted"), strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "rate limit"):
		return ErrRateLimit
	default:
		return nil
	}
}
