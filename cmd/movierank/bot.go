package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/movierank/internal/config"
	"github.com/vadimtrunov/movierank/internal/frontend/telegram"
)

// newBotCmd returns the "bot" subcommand for running the Telegram bot.
func newBotCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram bot",
		Long:  "Start a Telegram bot that answers comma-separated movie titles with ranked recommendations.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}

			if cfg.Telegram == nil {
				return errors.New(
					"telegram configuration is required: set telegram.bot_token in config or MOVIERANK_TELEGRAM_BOT_TOKEN env var",
				)
			}

			logger := config.SetupLogger(cfg.App.LogLevel)
			svc, err := initServices(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			bot, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.AllowedUserIDs, svc.ranker, logger)
			if err != nil {
				return err
			}

			logger.Info("telegram bot starting")
			return bot.Start(cmd.Context())
		},
	}
}
