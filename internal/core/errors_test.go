package core

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestErrorsMatchSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"network", &NetworkError{URL: "http://x", Err: io.ErrUnexpectedEOF}, ErrNetwork},
		{"network_status", &NetworkError{URL: "http://x", StatusCode: 503}, ErrNetwork},
		{"parse", &ParseError{What: "body", Err: io.EOF}, ErrParse},
		{"lookup", &LookupError{Title: "Se7en", Key: "Ratings"}, ErrLookup},
		{"wrapped_lookup", fmt.Errorf("fetch metadata: %w", &LookupError{Title: "x", Key: "Ratings"}), ErrLookup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.target)
			}
		})
	}
}

func TestNetworkErrorUnwrapsCause(t *testing.T) {
	t.Parallel()
	err := &NetworkError{URL: "http://x", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected NetworkError to unwrap to its cause")
	}
}

func TestLookupErrorMessage(t *testing.T) {
	t.Parallel()
	err := &LookupError{Title: "Nope", Key: "Ratings", Detail: "Movie not found!"}
	msg := err.Error()
	if !strings.Contains(msg, `"Nope"`) || !strings.Contains(msg, "Movie not found!") {
		t.Errorf("unexpected message: %q", msg)
	}
	if errors.Is(err, ErrParse) {
		t.Error("LookupError must not match ErrParse")
	}
}

func TestNewSimilarQuery(t *testing.T) {
	t.Parallel()

	q := NewSimilarQuery()
	if q.Type != "movies" || q.Limit != 5 {
		t.Errorf("defaults = %+v, want movies/5", q)
	}

	q = NewSimilarQuery(WithType("shows"), WithLimit(10))
	if q.Type != "shows" || q.Limit != 10 {
		t.Errorf("overrides = %+v, want shows/10", q)
	}

	q = NewSimilarQuery(WithType(""), WithLimit(0))
	if q.Type != "movies" || q.Limit != 5 {
		t.Errorf("zero overrides should keep defaults, got %+v", q)
	}
}
