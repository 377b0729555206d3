package tastedive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/httpclient"
	"github.com/vadimtrunov/movierank/internal/respcache"
)

// DefaultBaseURL is the public TasteDive similarity endpoint.
const DefaultBaseURL = "https://tastedive.com/api/similar"

// Config holds client settings.
type Config struct {
	BaseURL string
	APIKey  string // Optional; sent as "k"
}

// Client is a TasteDive similarity API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	cache   *respcache.Fetcher
	logger  *slog.Logger
}

var _ core.SimilarityProvider = (*Client)(nil)

// New creates a TasteDive client. A nil cache disables response caching.
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
func (c *Client) Name() string { return "tastedive" }

// Params returns the query parameters for a similarity lookup.
func (c *Client) Params(title core.Title, opts ...core.SimilarOption) url.Values {
	q := core.NewSimilarQuery(opts...)
	params := url.Values{
		"q":     {title},
		"type":  {q.Type},
		"limit": {strconv.Itoa(q.Limit)},
	}
	if c.apiKey != "" {
		params.Set("k", c.apiKey)
	}
	return params
}

// BaseURL returns the endpoint the client queries.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchSimilar returns the names of titles related to title, in upstream order.
func (c *Client) FetchSimilar(ctx context.Context, title core.Title, opts ...core.SimilarOption) ([]core.Title, error) {
	if strings.TrimSpace(title) == "" {
		return nil, core.ErrEmptyTitle
	}

	params := c.Params(title, opts...)
	body, err := c.cache.Get(ctx, c.baseURL, params, func(ctx context.Context) ([]byte, error) {
		body, err := c.http.Get(ctx, c.baseURL, params)
		if err != nil {
			return nil, err
		}
		// Error envelopes may arrive with a 2xx status and must not be cached.
		if _, err := decodeSimilar(title, body); err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch similar for %q: %w", title, err)
	}

	names, err := decodeSimilar(title, body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("similar titles fetched",
		slog.String("title", title),
		slog.Int("count", len(names)),
	)
	return names, nil
}

// decodeSimilar extracts result names from a response body.
func decodeSimilar(title core.Title, body []byte) ([]core.Title, error) {
	var resp similarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &core.ParseError{What: "tastedive response", Err: err}
	}
	if resp.Similar == nil {
		return nil, &core.LookupError{Title: title, Key: "Similar", Detail: resp.Error}
	}
	if resp.Similar.Results == nil {
		return nil, &core.LookupError{Title: title, Key: "Similar.Results", Detail: resp.Error}
	}

	names := make([]core.Title, 0, len(*resp.Similar.Results))
	for _, r := range *resp.Similar.Results {
		if r.Name == "" {
			continue
		}
		names = append(names, r.Name)
	}
	return names, nil
}
