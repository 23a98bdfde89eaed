package client

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a search failure so callers can decide user-facing
// behavior (prompt re-login, retry later, report no results) without string
// matching.
type ErrorKind string

const (
	// ErrorKindAuth means the bearer token was rejected (401/403). The
	// client never invalidates a cached credential on this kind; that
	// decision belongs to the caller.
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindRateLimit means the upstream returned 429. No retry is
	// performed by the client.
	ErrorKindRateLimit ErrorKind = "rate_limit"
	// ErrorKindNetwork covers connection failures and unexpected statuses.
	ErrorKindNetwork ErrorKind = "network"
	// ErrorKindStream covers read failures mid-stream and upstream error
	// frames in an otherwise completed stream.
	ErrorKindStream ErrorKind = "stream"
	// ErrorKindEmpty means the stream completed but produced neither answer
	// text nor sources.
	ErrorKindEmpty ErrorKind = "empty"
	// ErrorKindCancelled means the caller cancelled the request.
	ErrorKindCancelled ErrorKind = "cancelled"
)

// SearchError is a classified search failure.
type SearchError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, msg, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause, if any.
func (e *SearchError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or the empty kind when err is
// not a SearchError.
func KindOf(err error) ErrorKind {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
