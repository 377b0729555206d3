package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/movierank/internal/config"
	"github.com/vadimtrunov/movierank/internal/core"
)

func newSimilarCmd(root *rootOptions) *cobra.Command {
	var (
		typ   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "similar <title>",
		Short: "List titles similar to a movie",
		Example: `  movierank similar Se7en
  movierank similar "Breaking Bad" --type shows --limit 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}

			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			logger := config.SetupLogger(cfg.App.LogLevel)
			svc, err := initServices(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			if typ == "" {
				typ = cfg.TasteDive.Type
			}
			if limit == 0 {
				limit = cfg.TasteDive.Limit
			}

			title := strings.Join(args, " ")
			titles, err := svc.similar.FetchSimilar(cmd.Context(), title, core.WithType(typ), core.WithLimit(limit))
			if err != nil {
				return fmt.Errorf("similar titles for %q: %w", title, err)
			}

			out := cmd.OutOrStdout()
			if len(titles) == 0 {
				fmt.Fprintln(out, styleDim.Render("No similar titles found."))
				return nil
			}
			for _, t := range titles {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "result category, e.g. movies, shows, music (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (default from config)")
	return cmd
}
