package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the analysis core can report
type ErrorKind string

const (
	KindConfiguration      ErrorKind = "configuration"
	KindInvalidInput       ErrorKind = "invalid_input"
	KindUnsupportedMedia   ErrorKind = "unsupported_media"
	KindEncoding           ErrorKind = "encoding"
	KindInferenceTransport ErrorKind = "inference_transport"
	KindEmptyResponse      ErrorKind = "empty_response"
	KindMalformedResponse  ErrorKind = "malformed_response"
	KindCancelled          ErrorKind = "cancelled"
)

// Reason narrows a malformed_response failure down to what was wrong with the payload
type Reason string

const (
	ReasonInvalidJSON       Reason = "invalid-json"
	ReasonSchemaViolation   Reason = "schema-violation"
	ReasonEmptyTranscript   Reason = "empty-transcript"
	ReasonEmptySentiment    Reason = "empty-sentiment"
	ReasonInvalidTranscript Reason = "invalid-transcript"
	ReasonInvalidSentiment  Reason = "invalid-sentiment"
	ReasonInvalidCoaching   Reason = "invalid-coaching"
)

// Sentinels for errors.Is matching by kind
var (
	ErrConfiguration      = &Error{Kind: KindConfiguration}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrUnsupportedMedia   = &Error{Kind: KindUnsupportedMedia}
	ErrEncoding           = &Error{Kind: KindEncoding}
	ErrInferenceTransport = &Error{Kind: KindInferenceTransport}
	ErrEmptyResponse      = &Error{Kind: KindEmptyResponse}
	ErrMalformedResponse  = &Error{Kind: KindMalformedResponse}
	ErrCancelled          = &Error{Kind: KindCancelled}
)

// Error is the single error type surfaced by the analysis core.
// Raw carries the model's response text for malformed_response failures.
type Error struct {
	Kind    ErrorKind
	Reason  Reason
	Message string
	Raw     string
	Err     error
}

// NewError creates an error of the given kind
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates an error of the given kind around an underlying cause
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// MalformedResponse creates a malformed_response error that keeps the raw payload
func MalformedResponse(reason Reason, raw string, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindMalformedResponse,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
		Raw:     raw,
		Err:     err,
	}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += " (" + string(e.Reason) + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality against another *Error, so
// errors.Is(err, domain.ErrCancelled) works on any cancelled error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf returns the reason code of the first *Error in err's chain
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// RawOf returns the raw response text retained on err, if any
func RawOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Raw
	}
	return ""
}
