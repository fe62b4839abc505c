package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"payflow/internal/notify"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		requesterID  string
		requesterTag string
		origin       string
		amount       int64
		purpose      string
		note         string
		evidence     []string
		deliveryID   string
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new expenditure request",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := ctx.client().Submit(cmd.Context(), submitRequest{
				DeliveryID:    deliveryID,
				RequesterID:   requesterID,
				RequesterTag:  requesterTag,
				OriginSurface: origin,
				Amount:        amount,
				Purpose:       purpose,
				Note:          note,
				EvidenceRefs:  evidence,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, reply)
			}
			if reply.Replay {
				fmt.Fprintf(cmd.OutOrStdout(), "Request %s already exists for this delivery\n", reply.Code)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s for %s (%s)\n",
				reply.Code, notify.FormatAmount(amount), purpose)
			if reply.Warning != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Warning:", reply.Warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&requesterID, "requester-id", "", "Stable requester identity")
	cmd.Flags().StringVar(&requesterTag, "requester-tag", "", "Display tag of the requester")
	cmd.Flags().StringVar(&origin, "origin", "", "Origin surface identifier")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Requested amount in minor units")
	cmd.Flags().StringVar(&purpose, "purpose", "", "Spend category")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note")
	cmd.Flags().StringSliceVar(&evidence, "evidence", nil, "Evidence image URL (repeatable)")
	cmd.Flags().StringVar(&deliveryID, "delivery-id", "", "Idempotency key for this delivery")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	_ = cmd.MarkFlagRequired("requester-id")
	_ = cmd.MarkFlagRequired("requester-tag")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("purpose")
	_ = cmd.MarkFlagRequired("evidence")

	return cmd
}
