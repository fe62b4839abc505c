package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newApproveCommand(ctx *commandContext) *cobra.Command {
	return newDecisionCommand(ctx, "approve", "Approve a pending request", "approved", false)
}

func newRejectCommand(ctx *commandContext) *cobra.Command {
	return newDecisionCommand(ctx, "reject", "Reject a pending request", "rejected", true)
}

func newDecisionCommand(ctx *commandContext, use, short, outcome string, reasonRequired bool) *cobra.Command {
	var (
		actorID  string
		actorTag string
		roles    []string
		reason   string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   use + " <code>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := ctx.client().Decide(cmd.Context(), args[0], decisionRequest{
				ActorID:  actorID,
				ActorTag: actorTag,
				Roles:    roles,
				Outcome:  outcome,
				Reason:   reason,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, reply)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %s is now %s (decided by %s)\n",
				reply.Code, reply.Status, reply.DeciderTag)
			if outcome == "approved" && !reply.LedgerPosted {
				fmt.Fprintln(cmd.OutOrStdout(), "Warning: ledger entry was not posted; reconcile manually")
			}
			if reply.Warning != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Warning:", reply.Warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "actor-id", "", "Stable identity of the approver")
	cmd.Flags().StringVar(&actorTag, "actor-tag", "", "Display tag of the approver")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role held by the approver (repeatable)")
	cmd.Flags().StringVar(&reason, "reason", "", "Decision reason")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	_ = cmd.MarkFlagRequired("actor-tag")
	_ = cmd.MarkFlagRequired("role")
	if reasonRequired {
		_ = cmd.MarkFlagRequired("reason")
	}

	return cmd
}

func newWithdrawCommand(ctx *commandContext) *cobra.Command {
	var (
		requesterID string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "withdraw <code>",
		Short: "Withdraw your own pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := ctx.client().Withdraw(cmd.Context(), args[0], requesterID)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, reply)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Request %s withdrawn\n", reply.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&requesterID, "requester-id", "", "Stable requester identity")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	_ = cmd.MarkFlagRequired("requester-id")

	return cmd
}
