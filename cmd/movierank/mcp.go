package main

import (
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/movierank/internal/config"
	mcpserver "github.com/vadimtrunov/movierank/internal/mcp"
)

// newMCPServeCmd returns the hidden "mcp-serve" subcommand.
// It exposes the ranking tools to MCP clients over stdin/stdout.
func newMCPServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Start MCP server over stdio",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			srv := mcpserver.NewServer(mcpserver.Deps{
				Ranker:  svc.ranker,
				Similar: svc.similar,
			}, version, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
