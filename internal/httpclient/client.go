package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vadimtrunov/movierank/internal/core"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// ErrBodyTooLarge is returned when a response body exceeds maxBodySize.
var ErrBodyTooLarge = errors.New("response body too large")

// SensitiveParams are query parameter names masked in logs and printed URLs.
var SensitiveParams = []string{"apikey", "api_key", "k"}

// Config holds transport configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		UserAgent: "movierank",
	}
}

// Client wraps http.Client for single-attempt JSON GETs.
type Client struct {
	http   *http.Client
	config Config
	logger *slog.Logger
}

// New creates a new Client with a default http.Client.
func New(cfg Config, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithHTTPClient creates a Client with a custom http.Client (e.g. for tests).
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:   httpClient,
		config: cfg,
		logger: logger,
	}
}

// Get issues a GET for baseURL with params and returns the full response body.
// Transport failures and non-2xx responses are returned as *core.NetworkError.
func (c *Client) Get(ctx context.Context, baseURL string, params url.Values) ([]byte, error) {
	full, err := BuildURL(baseURL, params)
	if err != nil {
		return nil, err
	}
	redacted := Redact(full)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &core.NetworkError{URL: redacted, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("http request",
		slog.String("url", redacted),
		slog.Int("status", resp.StatusCode),
		slog.String("elapsed", time.Since(start).String()),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &core.NetworkError{URL: redacted, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, &core.NetworkError{URL: redacted, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxBodySize {
		return nil, &core.NetworkError{URL: redacted, Err: fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, maxBodySize)}
	}
	return body, nil
}

// BuildURL returns the full request URL for baseURL and params.
// Parameters are encoded in sorted key order, so the result is stable.
func BuildURL(baseURL string, params url.Values) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing scheme or host", baseURL)
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Redact masks the values of SensitiveParams in a URL string for safe logging.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<redacted>"
	}
	q := u.Query()
	changed := false
	for _, k := range SensitiveParams {
		if q.Has(k) {
			q.Set(k, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	u.User = nil
	return u.String()
}
