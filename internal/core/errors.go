package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them via errors.Is.
var (
	ErrNetwork    = errors.New("network error")
	ErrParse      = errors.New("parse error")
	ErrLookup     = errors.New("lookup error")
	ErrEmptyTitle = errors.New("title must not be empty")
)

// NetworkError is a transport failure or a non-2xx response.
type NetworkError struct {
	URL        string // Redacted request URL
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error        { return e.Err }
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ParseError is a body that is not valid JSON or a value in an unexpected format.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.What, e.Err) }

func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// LookupError means an expected key was absent, usually because the title is unknown upstream.
type LookupError struct {
	Title  Title
	Key    string // Missing key, e.g. "Similar.Results" or "Ratings"
	Detail string // Upstream error message, if any
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("lookup %q: missing %s", e.Title, e.Key)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *LookupError) Is(target error) bool { return target == ErrLookup }
