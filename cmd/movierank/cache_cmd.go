package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/movierank/internal/config"
	"github.com/vadimtrunov/movierank/internal/respcache"
)

// newCacheCmd returns the "cache" subcommand group for the response cache.
func newCacheCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Response cache management",
	}

	cmd.AddCommand(newCacheInfoCmd(root), newCacheClearCmd(root))
	return cmd
}

// newCacheInfoCmd returns the "cache info" subcommand that describes the configured backend.
func newCacheInfoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the configured cache backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			logger := config.SetupLogger(cfg.App.LogLevel)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", styleDim.Render("backend:"), cfg.Cache.Backend)
			switch cfg.Cache.Backend {
			case config.CacheFile:
				fmt.Fprintf(out, "%s %s\n", styleDim.Render("path:"), cfg.Cache.Path)
			case config.CacheRedis:
				fmt.Fprintf(out, "%s %s\n", styleDim.Render("addrs:"), strings.Join(cfg.Cache.Redis.Addrs, ", "))
			}
			if cfg.Cache.TTL > 0 {
				fmt.Fprintf(out, "%s %s\n", styleDim.Render("ttl:"), cfg.Cache.TTL)
			}

			if cfg.Cache.Backend == config.CacheNone {
				fmt.Fprintln(out, styleDim.Render("Response caching is disabled."))
				return nil
			}

			store, closeStore, err := initCacheStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := pingStore(cmd.Context(), store); err != nil {
				return fmt.Errorf("cache unreachable: %w", err)
			}
			fmt.Fprintln(out, styleSuccess.Render("✓ Cache is reachable"))
			return nil
		},
	}
}

// newCacheClearCmd returns the "cache clear" subcommand that drops every cached response.
func newCacheClearCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			logger := config.SetupLogger(cfg.App.LogLevel)
			return clearCache(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}
}

func clearCache(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	store, closeStore, err := initCacheStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	clearer, ok := store.(respcache.Clearer)
	if !ok || cfg.Cache.Backend == config.CacheMemory {
		fmt.Fprintln(out, styleDim.Render("Nothing to clear for cache backend "+cfg.Cache.Backend+"."))
		return nil
	}
	if err := clearer.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintln(out, styleSuccess.Render("✓ Cache cleared"))
	return nil
}

// pingStore checks that a store answers, where the backend supports it.
func pingStore(ctx context.Context, store respcache.Store) error {
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
