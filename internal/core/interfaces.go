package core

import "context"

// SimilarityProvider defines the interface for "similar titles" services (TasteDive)
type SimilarityProvider interface {
	// FetchSimilar returns titles related to the given one, in upstream order
	FetchSimilar(ctx context.Context, title Title, opts ...SimilarOption) ([]Title, error)

	// Name returns the provider name (e.g., "tastedive")
	Name() string
}

// MetadataProvider defines the interface for movie-metadata services (OMDb)
type MetadataProvider interface {
	// FetchMetadata returns the metadata record for a title
	FetchMetadata(ctx context.Context, title Title) (*MetadataRecord, error)

	// Name returns the provider name (e.g., "omdb")
	Name() string
}

// SimilarQuery holds the optional parameters of a similarity lookup
type SimilarQuery struct {
	Type  string // Category, e.g. "movies", "shows", "music"
	Limit int    // Maximum number of results requested
}

// Default similarity query parameters.
const (
	DefaultSimilarType  = "movies"
	DefaultSimilarLimit = 5
)

// SimilarOption customizes a similarity lookup.
type SimilarOption func(*SimilarQuery)

// WithType sets the similarity category.
func WithType(t string) SimilarOption {
	return func(q *SimilarQuery) {
		if t != "" {
			q.Type = t
		}
	}
}

// WithLimit sets the maximum number of similar titles requested.
func WithLimit(n int) SimilarOption {
	return func(q *SimilarQuery) {
		if n > 0 {
			q.Limit = n
		}
	}
}

// NewSimilarQuery applies opts on top of the defaults.
func NewSimilarQuery(opts ...SimilarOption) SimilarQuery {
	q := SimilarQuery{Type: DefaultSimilarType, Limit: DefaultSimilarLimit}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}
