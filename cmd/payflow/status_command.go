package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the payflow daemon is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := ctx.serverURL()
			if err := ctx.client().Health(cmd.Context()); err != nil {
				return fmt.Errorf("daemon at %s is not responding: %w", server, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon at %s is healthy\n", server)
			return nil
		},
	}
}
