package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"payflow/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set spreadsheet_id and credentials before starting payflowd.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", resolved)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "spreadsheet_id:  %s\n", cfg.Store.SpreadsheetID)
			fmt.Fprintf(out, "requests_table:  %s\n", cfg.Store.RequestsTable)
			fmt.Fprintf(out, "code_prefix:     %s\n", cfg.Store.CodePrefix)
			fmt.Fprintf(out, "approver_role:   %s\n", cfg.Approvals.ApproverRole)
			fmt.Fprintf(out, "max_evidence:    %d\n", cfg.Approvals.MaxEvidence)
			fmt.Fprintf(out, "gateway_bind:    %s\n", cfg.Gateway.Bind)
			fmt.Fprintf(out, "gateway_token:   %s\n", redact(cfg.Gateway.Token))
			fmt.Fprintf(out, "review_webhook:  %s\n", cfg.Notifications.ReviewWebhook)
			fmt.Fprintf(out, "origin_webhook:  %s\n", cfg.Notifications.OriginWebhook)
			fmt.Fprintf(out, "logging_dir:     %s\n", cfg.Logging.Dir)
			fmt.Fprintf(out, "dedup_dir:       %s\n", cfg.Dedup.Dir)
			return nil
		},
	}
}

func redact(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return "********"
}
