package source

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fetch failure
type ErrorKind string

const (
	// KindNetwork is a transport failure (DNS, connection, timeout)
	KindNetwork ErrorKind = "network"
	// KindStatus is a non-200 response
	KindStatus ErrorKind = "status"
	// KindRateLimit is a 429 response
	KindRateLimit ErrorKind = "rate_limit"
	// KindParsing is a page or file that could not be decoded
	KindParsing ErrorKind = "parsing"
	// KindIO is a local read failure
	KindIO ErrorKind = "io"
)

// FetchError is returned by a Source when it cannot produce records.
// The pipeline treats it as zero records from that source, never as a
// reason to abort the run.
type FetchError struct {
	Kind       ErrorKind
	Source     string
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Kind, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether trying again might succeed. Rate limits are
// not retried within a run.
func (e *FetchError) IsRetryable() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindStatus:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// KindOf returns the kind of a FetchError anywhere in err's chain, or "" otherwise
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func newError(kind ErrorKind, source, message string, err error) *FetchError {
	return &FetchError{Kind: kind, Source: source, Message: message, Err: err}
}
