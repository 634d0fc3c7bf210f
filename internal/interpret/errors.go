package interpret

import (
	"errors"
	"fmt"
)

// Kind classifies interpreter failures.
type Kind string

const (
	KindEmptyResponse     Kind = "empty_response"
	KindMalformedResponse Kind = "malformed_response"
)

var (
	// ErrEmptyResponse matches any ParseError of KindEmptyResponse.
	ErrEmptyResponse = errors.New("empty response")
	// ErrMalformedResponse matches any ParseError of KindMalformedResponse.
	ErrMalformedResponse = errors.New("malformed response")
)

// ParseError reports why a service response could not be interpreted.
type ParseError struct {
	Kind   Kind
	Target string
	Err    error
}

func (e *ParseError) Error() string {
	kind := ErrMalformedResponse
	if e.Kind == KindEmptyResponse {
		kind = ErrEmptyResponse
	}
	if e.Err == nil {
		return fmt.Sprintf("parse %s: %s", e.Target, kind)
	}
	return fmt.Sprintf("parse %s: %s: %v", e.Target, kind, e.Err)
}

func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrEmptyResponse:
		return e.Kind == KindEmptyResponse
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	default:
		return false
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func emptyResponse(target string) error {
	return &ParseError{Kind: KindEmptyResponse, Target: target}
}

func malformed(target string, err error) error {
	return &ParseError{Kind: KindMalformedResponse, Target: target, Err: err}
}
