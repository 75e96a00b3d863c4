package models

import (
	"errors"
	"fmt"
)

// Caller contract violations. These are the only failures that pass the
// facade; everything a source does wrong becomes a synthetic result.
var (
	ErrUnknownKind       = errors.New("unknown proxy kind")
	ErrMissingIdentifier = errors.New("missing proxy identifier")
	ErrInvalidTimeframe  = errors.New("invalid timeframe")
	ErrProxyNotFound     = errors.New("proxy not found")
	ErrNotNumeric        = errors.New("proxy has no numeric series")
	ErrNotNews           = errors.New("proxy is not a news feed")
)

// SourceErrorKind classifies upstream failures.
type SourceErrorKind string

const (
	MalformedResponse SourceErrorKind = "malformed_response"
	Unauthorized      SourceErrorKind = "unauthorized"
	Unavailable       SourceErrorKind = "unavailable"
	NotFound          SourceErrorKind = "not_found"
)

// SourceError is returned by source adapters.
type SourceError struct {
	Source string
	Kind   SourceErrorKind
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Kind)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError wraps err with a kind.
func NewSourceError(source string, kind SourceErrorKind, err error) *SourceError {
	return &SourceError{Source: source, Kind: kind, Err: err}
}

// SourceErrorf formats a new SourceError.
func SourceErrorf(source string, kind SourceErrorKind, format string, a ...interface{}) *SourceError {
	return &SourceError{Source: source, Kind: kind, Err: fmt.Errorf(format, a...)}
}

// AsSourceError extracts a SourceError from err.
func AsSourceError(err error) (*SourceError, bool) {
	var se *SourceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
