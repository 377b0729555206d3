package main

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/movierank/internal/config"
	"github.com/vadimtrunov/movierank/internal/httpclient"
	"github.com/vadimtrunov/movierank/internal/metadata/omdb"
	"github.com/vadimtrunov/movierank/internal/ranker"
	"github.com/vadimtrunov/movierank/internal/respcache"
	"github.com/vadimtrunov/movierank/internal/similar/tastedive"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray

	styleTitle = lipgloss.NewStyle().Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// services bundles the clients built from the configuration.
type services struct {
	similar  *tastedive.Client
	metadata *omdb.Client
	ranker   *ranker.Ranker
	closers  []func()
}

// Close releases cache connections.
func (s *services) Close() {
	for _, c := range s.closers {
		c()
	}
}

// initServices creates the HTTP client, response cache, API clients and ranker.
func initServices(cfg *config.Config, logger *slog.Logger) (*services, error) {
	store, closeStore, err := initCacheStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.HTTP.Timeout
	httpCfg.UserAgent = "movierank/" + version
	hc := httpclient.New(httpCfg, logger)

	cache := respcache.NewFetcher(store, logger)

	similar := tastedive.New(tastedive.Config{
		BaseURL: cfg.TasteDive.BaseURL,
		APIKey:  cfg.TasteDive.APIKey,
	}, hc, cache, logger)
	logger.Debug("similarity client initialized", slog.String("url", sanitizeURL(similar.BaseURL())))

	metadata := omdb.New(omdb.Config{
		BaseURL: cfg.OMDb.BaseURL,
		APIKey:  cfg.OMDb.APIKey,
	}, hc, cache, logger)
	logger.Debug("metadata client initialized", slog.String("url", sanitizeURL(metadata.BaseURL())))

	r := ranker.New(similar, metadata, ranker.Options{
		Source:       cfg.Ranking.Source,
		MaxResults:   cfg.Ranking.MaxResults,
		SimilarType:  cfg.TasteDive.Type,
		SimilarLimit: cfg.TasteDive.Limit,
	}, logger)

	return &services{
		similar:  similar,
		metadata: metadata,
		ranker:   r,
		closers:  []func(){closeStore},
	}, nil
}

// initCacheStore opens the configured response cache backend.
// The "none" backend yields a nil store, which disables caching.
func initCacheStore(cfg *config.Config, logger *slog.Logger) (respcache.Store, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case config.CacheNone:
		return nil, noop, nil

	case config.CacheMemory:
		return respcache.NewMemoryStore(cfg.Cache.TTL), noop, nil

	case config.CacheRedis:
		store, err := respcache.NewRedisStore(respcache.RedisConfig{
			Addrs:    cfg.Cache.Redis.Addrs,
			Username: cfg.Cache.Redis.Username,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis cache: %w", err)
		}
		logger.Debug("redis cache initialized", slog.Any("addrs", cfg.Cache.Redis.Addrs))
		return store, store.Close, nil

	default:
		store, err := respcache.OpenFileStore(cfg.Cache.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open file cache: %w", err)
		}
		logger.Debug("file cache initialized", slog.String("path", store.Path()))
		return store, noop, nil
	}
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
