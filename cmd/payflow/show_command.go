package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"payflow/internal/notify"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <code>",
		Short: "Show one request in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := ctx.client().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, reply)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderRequestDetail(reply))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func renderRequestDetail(req *requestReply) string {
	var b strings.Builder
	write := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-11s %s\n", label+":", value)
		}
	}

	write("Code", req.Code)
	write("Status", req.Status)
	write("Requester", req.RequesterTag)
	write("Amount", notify.FormatAmount(req.Amount))
	write("Purpose", req.Purpose)
	write("Note", req.Note)
	write("Created", req.CreatedAt.Format(time.RFC3339))
	if req.DecidedAt != nil {
		write("Decided", req.DecidedAt.Format(time.RFC3339))
		write("Decider", req.DeciderTag)
		write("Reason", req.DecisionReason)
	}
	for i, ref := range req.EvidenceRefs {
		write(fmt.Sprintf("Evidence %d", i+1), ref)
	}
	write("Posting", req.PostingRef)
	return b.String()
}
