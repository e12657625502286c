package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies workflow failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindValidation
	KindTransport
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the submission workflow.
type Error struct {
	Kind  ErrorKind
	Field string // validation only
	Op    string // transport and parse only
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrMissingAPIKey is wrapped by configuration errors.
var ErrMissingAPIKey = errors.New("fatebook API key is not set")

// ConfigurationError reports an absent credential.
func ConfigurationError() error {
	return &Error{Kind: KindConfiguration, Err: ErrMissingAPIKey}
}

// ValidationError reports a malformed field.
func ValidationError(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Err: errors.New(message)}
}

// TransportError wraps a network failure, bad status or empty body.
func TransportError(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// ParseError wraps a body that is not valid JSON.
func ParseError(op string, err error) error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
