package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/httpclient"
	"github.com/vadimtrunov/movierank/internal/respcache"
)

const (
	// DefaultBaseURL is the public OMDb endpoint.
	DefaultBaseURL = "http://www.omdbapi.com/"

	// responseFormat is the only format the client can decode.
	responseFormat = "json"

	// movieNotFound is the Error text of a lookup for an unknown title.
	movieNotFound = "Movie not found!"
)

// Config holds client settings.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client is an OMDb API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	cache   *respcache.Fetcher
	logger  *slog.Logger
}

var _ core.MetadataProvider = (*Client)(nil)

// New creates an OMDb client. A nil cache disables response caching.
func New(cfg Config, http *httpclient.Client, cache *respcache.Fetcher, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if http == nil {
		http = httpclient.New(httpclient.DefaultConfig(), logger)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    http,
		cache:   cache,
		logger:  logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return "omdb" }

// BaseURL returns the endpoint the client queries.
func (c *Client) BaseURL() string { return c.baseURL }

// Params returns the query parameters for a title lookup.
func (c *Client) Params(title core.Title) url.Values {
	return url.Values{
		"apikey": {c.apiKey},
		"t":      {title},
		"r":      {responseFormat},
	}
}

// FetchMetadata looks a movie up by title.
// A response without a Ratings field (including "Movie not found!") is a *core.LookupError.
func (c *Client) FetchMetadata(ctx context.Context, title core.Title) (*core.MetadataRecord, error) {
	if strings.TrimSpace(title) == "" {
		return nil, core.ErrEmptyTitle
	}

	params := c.Params(title)
	body, err := c.cache.Get(ctx, c.baseURL, params, func(ctx context.Context) ([]byte, error) {
		body, err := c.http.Get(ctx, c.baseURL, params)
		if err != nil {
			return nil, err
		}
		// Only well-formed answers are cached: records and the stable "not found".
		resp, err := decodeTitle(body)
		if err != nil {
			return nil, err
		}
		if resp.Ratings == nil && resp.Error != movieNotFound {
			return nil, &core.LookupError{Title: title, Key: "Ratings", Detail: resp.Error}
		}
		return body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch metadata for %q: %w", title, err)
	}

	resp, err := decodeTitle(body)
	if err != nil {
		return nil, err
	}
	if resp.Ratings == nil {
		return nil, &core.LookupError{Title: title, Key: "Ratings", Detail: resp.Error}
	}

	rec := resp.record()
	c.logger.Debug("metadata fetched",
		slog.String("title", title),
		slog.Int("ratings", len(rec.Ratings)),
	)
	return rec, nil
}

func decodeTitle(body []byte) (*titleResponse, error) {
	var resp titleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &core.ParseError{What: "omdb response", Err: err}
	}
	return &resp, nil
}
