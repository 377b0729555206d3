package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/httpclient"
	"github.com/vadimtrunov/movierank/internal/metadata/omdb"
	"github.com/vadimtrunov/movierank/internal/similar/tastedive"
)

// newURLCmd returns the "url" subcommand group that prints request URLs for debugging.
func newURLCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the request URL for an API lookup",
		Long:  "Print the full request URL the client would send, with API keys redacted. No request is made.",
	}

	cmd.AddCommand(
		newURLSubCmd(root, "similar", "Similarity service URL for a title",
			func(c *urlClients, title string) (string, url.Values) {
				return c.similar.BaseURL(), c.similar.Params(title, c.similarOpts...)
			}),
		newURLSubCmd(root, "metadata", "Metadata service URL for a title",
			func(c *urlClients, title string) (string, url.Values) {
				return c.metadata.BaseURL(), c.metadata.Params(title)
			}),
	)
	return cmd
}

type urlClients struct {
	similar     *tastedive.Client
	similarOpts []core.SimilarOption
	metadata    *omdb.Client
}

func newURLSubCmd(root *rootOptions, use, short string, build func(*urlClients, string) (string, url.Values)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <title>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}

			// No requests are made, so clients need neither transport nor cache.
			logger := slog.New(slog.DiscardHandler)
			clients := &urlClients{
				similar: tastedive.New(tastedive.Config{
					BaseURL: cfg.TasteDive.BaseURL,
					APIKey:  cfg.TasteDive.APIKey,
				}, nil, nil, logger),
				metadata: omdb.New(omdb.Config{
					BaseURL: cfg.OMDb.BaseURL,
					APIKey:  cfg.OMDb.APIKey,
				}, nil, nil, logger),
				similarOpts: []core.SimilarOption{
					core.WithType(cfg.TasteDive.Type),
					core.WithLimit(cfg.TasteDive.Limit),
				},
			}

			base, params := build(clients, strings.Join(args, " "))
			full, err := httpclient.BuildURL(base, params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), httpclient.Redact(full))
			return nil
		},
	}
}
