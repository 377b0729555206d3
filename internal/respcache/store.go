// Package respcache caches raw API response bodies keyed by request URL.
package respcache

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
)

// ErrNotFound is returned by a Store when the key has no (live) value.
var ErrNotFound = errors.New("respcache: key not found")

// Store is a byte-oriented key-value store. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Clearer is implemented by stores that can drop every cached entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// DefaultIgnoredParams are never part of a cache key so secrets do not end up in storage.
var DefaultIgnoredParams = []string{"apikey", "api_key", "k"}

// Key builds the cache key for a request: baseURL + "?" + params sorted by name
// and URL-encoded, with the ignored params left out.
func Key(baseURL string, params url.Values, ignore []string) string {
	kept := make(url.Values, len(params))
	for k, vs := range params {
		if slices.Contains(ignore, k) {
			continue
		}
		kept[k] = vs
	}
	enc := kept.Encode()
	if enc == "" {
		return baseURL
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + enc
}
