package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newConfigCmd returns the "config" subcommand group.
func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the configuration file",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if _, err := loadConfig(root.configPath); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("✓ Configuration is valid"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration with secrets masked",
			Long: "Print the configuration after env overrides and defaults are applied.\n" +
				"API keys, tokens and passwords are masked.",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(root.configPath)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg.Redacted()); err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				return enc.Close()
			},
		},
	)
	return cmd
}
