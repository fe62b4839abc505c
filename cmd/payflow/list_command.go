package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"payflow/internal/notify"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		status  string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := ctx.client().List(cmd.Context(), status)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, reply)
			}
			if reply.Count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requests found")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRequestTable(cmd, reply.Requests))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, approved, rejected, withdrawn)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func renderRequestTable(cmd *cobra.Command, requests []requestReply) string {
	headers := []string{"Code", "Status", "Requester", "Amount", "Purpose", "Created", "Decider"}
	rows := make([][]string, 0, len(requests))
	for _, req := range requests {
		rows = append(rows, []string{
			req.Code,
			req.Status,
			req.RequesterTag,
			notify.FormatAmount(req.Amount),
			req.Purpose,
			req.CreatedAt.Format(time.DateOnly),
			req.DeciderTag,
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
	return renderTable(cmd.OutOrStdout(), headers, rows, aligns)
}
