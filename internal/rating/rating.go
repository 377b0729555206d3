// Package rating pulls a single integer score out of a metadata record.
package rating

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vadimtrunov/movierank/internal/core"
)

// DefaultSource is the rating source used when none is configured.
const DefaultSource = "Rotten Tomatoes"

// Score is an extracted rating. Known is false when the record had no entry
// for the source, which is distinct from a real 0%.
type Score struct {
	Value int
	Known bool
}

// Extractor extracts the score of one named source.
type Extractor struct {
	Source string
}

// NewExtractor returns an Extractor for source, or DefaultSource if empty.
func NewExtractor(source string) Extractor {
	if source == "" {
		source = DefaultSource
	}
	return Extractor{Source: source}
}

// Extract returns the score for e.Source. If several entries match, the last one wins.
func (e Extractor) Extract(rec *core.MetadataRecord) (Score, error) {
	return Extract(rec, e.Source)
}

// Extract scans rec.Ratings for source and parses its percentage value ("72%" -> 72).
// No matching entry yields an unknown zero score and no error.
func Extract(rec *core.MetadataRecord, source string) (Score, error) {
	if rec == nil {
		return Score{}, nil
	}

	var (
		raw   string
		found bool
	)
	for _, r := range rec.Ratings {
		if r.Source == source {
			raw = r.Value
			found = true
		}
	}
	if !found {
		return Score{}, nil
	}

	v, err := parsePercent(raw)
	if err != nil {
		return Score{}, &core.ParseError{What: fmt.Sprintf("%s rating of %q", source, rec.Title), Err: err}
	}
	return Score{Value: v, Known: true}, nil
}

// ExtractRating returns the Rotten Tomatoes percentage of rec, or 0 when it
// has no such entry or the value cannot be parsed.
func ExtractRating(rec *core.MetadataRecord) int {
	s, err := Extract(rec, DefaultSource)
	if err != nil {
		return 0
	}
	return s.Value
}

func parsePercent(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	return strconv.Atoi(strings.TrimSpace(s))
}
