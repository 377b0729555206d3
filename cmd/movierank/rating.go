package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/movierank/internal/config"
	"github.com/vadimtrunov/movierank/internal/core"
)

func newRatingCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rating <title>",
		Short:   "Show the rating of a movie",
		Example: `  movierank rating Zodiac`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			title := strings.Join(args, " ")
			score, err := svc.ranker.Rate(cmd.Context(), title)
			if err != nil {
				return fmt.Errorf("rating for %q: %w", title, err)
			}

			rt := core.RankedTitle{Title: title, Rating: score.Value, Known: score.Known}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n",
				styleTitle.Render(title), renderScore(rt), styleDim.Render("("+svc.ranker.Source()+")"))
			return nil
		},
	}
}
