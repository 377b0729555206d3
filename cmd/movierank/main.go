package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/movierank/internal/config"
)

const version = "0.1.0"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "movierank",
		Short: "Rank movies related to the ones you like",
		Long: "movierank looks up titles related to your favourite movies and sorts them\n" +
			"by their Rotten Tomatoes score, highest first.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadEnvFile(opts.envFile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "configs/movierank.yaml", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "path to a .env file with API keys (default ./.env if present)")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newRecommendCmd(opts),
		newSimilarCmd(opts),
		newRatingCmd(opts),
		newURLCmd(opts),
		newCacheCmd(opts),
		newConfigCmd(opts),
		newBotCmd(opts),
		newMCPServeCmd(opts),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "movierank v%s\n", version)
		},
	}
}
