package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/metadata/omdb"
	"github.com/vadimtrunov/movierank/internal/rating"
	"github.com/vadimtrunov/movierank/internal/similar/tastedive"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config represents the main application configuration
type Config struct {
	// Upstream services
	OMDb      OMDbConfig      `yaml:"omdb"`
	TasteDive TasteDiveConfig `yaml:"tastedive"`

	// Ranking behaviour
	Ranking RankingConfig `yaml:"ranking"`

	// Transport and response cache
	HTTP  HTTPConfig  `yaml:"http"`
	Cache CacheConfig `yaml:"cache"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// OMDbConfig holds metadata service configuration
type OMDbConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// TasteDiveConfig holds similarity service configuration
type TasteDiveConfig struct {
	APIKey  string `yaml:"api_key,omitempty"` // Optional
	BaseURL string `yaml:"base_url,omitempty"`
	Type    string `yaml:"type,omitempty"`  // "movies", "shows", "music", ...
	Limit   int    `yaml:"limit,omitempty"` // Results per seed title
}

// RankingConfig holds ranking settings
type RankingConfig struct {
	Source     string `yaml:"source,omitempty"`      // Rating source to sort by
	MaxResults int    `yaml:"max_results,omitempty"` // 0 = unlimited
}

// HTTPConfig holds outbound HTTP settings
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// CacheConfig holds response cache settings
type CacheConfig struct {
	Backend string        `yaml:"backend,omitempty"` // "memory", "file", "redis", "none"
	Path    string        `yaml:"path,omitempty"`    // File backend location
	TTL     time.Duration `yaml:"ttl,omitempty"`     // 0 = never expire
	Redis   RedisConfig   `yaml:"redis,omitempty"`
}

// RedisConfig holds redis connection settings for the redis cache backend
type RedisConfig struct {
	Addrs    []string `yaml:"addrs,omitempty"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	DB       int      `yaml:"db,omitempty"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"
	DataDir  string `yaml:"data_dir"`  // Directory for the response cache
}

// EnvOMDbAPIKey is the variable that can stand in for a missing config file.
const EnvOMDbAPIKey = "MOVIERANK_OMDB_API_KEY"

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set are kept. A missing default ".env" is not an error.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load loads configuration from a YAML file with environment variable overrides.
// A missing file is accepted when MOVIERANK_OMDB_API_KEY is set.
func Load(path string) (*Config, error) {
	var cfg Config

	err := validateConfigPath(path)
	switch {
	case err == nil:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && os.Getenv(EnvOMDbAPIKey) != "":
		// Environment-only configuration.
	default:
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validateConfigPath checks that path exists and is a regular file.
func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found: %s: %w", path, err)
		}
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvOMDbAPIKey); v != "" {
		c.OMDb.APIKey = v
	}
	if v := os.Getenv("MOVIERANK_TASTEDIVE_API_KEY"); v != "" {
		c.TasteDive.APIKey = v
	}

	// Cache
	if v := os.Getenv("MOVIERANK_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("MOVIERANK_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("MOVIERANK_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addrs = splitList(v)
	}
	if v := os.Getenv("MOVIERANK_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MOVIERANK_HTTP_TIMEOUT: %w", err)
		}
		c.HTTP.Timeout = d
	}
	if v := os.Getenv("MOVIERANK_MAX_RESULTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MOVIERANK_MAX_RESULTS: %w", err)
		}
		c.Ranking.MaxResults = n
	}

	// Telegram
	if v := os.Getenv("MOVIERANK_TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}

	// App
	if v := os.Getenv("MOVIERANK_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("MOVIERANK_DATA_DIR"); v != "" {
		c.App.DataDir = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// setDefaults fills zero values. It never overrides explicit settings.
func (c *Config) setDefaults() {
	if c.OMDb.BaseURL == "" {
		c.OMDb.BaseURL = omdb.DefaultBaseURL
	}
	if c.TasteDive.BaseURL == "" {
		c.TasteDive.BaseURL = tastedive.DefaultBaseURL
	}
	if c.TasteDive.Type == "" {
		c.TasteDive.Type = core.DefaultSimilarType
	}
	if c.TasteDive.Limit == 0 {
		c.TasteDive.Limit = core.DefaultSimilarLimit
	}
	if c.Ranking.Source == "" {
		c.Ranking.Source = rating.DefaultSource
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 30 * time.Second
	}

	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.DataDir == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			c.App.DataDir = filepath.Join(homeDir, ".movierank")
		} else {
			c.App.DataDir = ".movierank"
		}
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.Backend == CacheFile && c.Cache.Path == "" {
		c.Cache.Path = filepath.Join(c.App.DataDir, "responses.json")
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OMDb.APIKey == "" {
		return fmt.Errorf("omdb.api_key is required")
	}
	if err := validateURL(c.OMDb.BaseURL, "omdb.base_url"); err != nil {
		return err
	}
	if err := validateURL(c.TasteDive.BaseURL, "tastedive.base_url"); err != nil {
		return err
	}
	if c.TasteDive.Limit < 0 {
		return fmt.Errorf("tastedive.limit must not be negative")
	}
	if c.Ranking.MaxResults < 0 {
		return fmt.Errorf("ranking.max_results must not be negative")
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if c.Telegram != nil && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}

	switch strings.ToLower(c.App.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error; got %q", c.App.LogLevel)
	}

	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	switch c.Cache.Backend {
	case "", CacheMemory, CacheNone:
	case CacheFile:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the file backend")
		}
	case CacheRedis:
		if len(c.Cache.Redis.Addrs) == 0 {
			return fmt.Errorf("cache.redis.addrs is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be one of memory, file, redis, none; got %q", c.Cache.Backend)
	}
	return nil
}

// validateURL checks that raw is an absolute http(s) URL.
func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host", field)
	}
	return nil
}

const redactedValue = "********"

// Redacted returns a copy of c with credentials masked, safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	out.OMDb.APIKey = redact(c.OMDb.APIKey)
	out.TasteDive.APIKey = redact(c.TasteDive.APIKey)
	out.Cache.Redis.Password = redact(c.Cache.Redis.Password)
	if c.Telegram != nil {
		tg := *c.Telegram
		tg.BotToken = redact(tg.BotToken)
		out.Telegram = &tg
	}
	return &out
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redactedValue
}
