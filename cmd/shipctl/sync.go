package main

import (
	"github.com/spf13/cobra"
)

func newSyncCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the local and remote stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			result, err := s.app.Engine.Sync(ctx)
			if err != nil {
				return err
			}
			last, err := s.app.Engine.LastSyncTime(ctx)
			if err != nil {
				return err
			}

			table := newTable(cmd.OutOrStdout(), "Kind", "Repaired", "Pushed", "Pulled")
			if err := table.Append("orders", result.Orders.Repaired, result.Orders.Pushed, result.Orders.Pulled); err != nil {
				return err
			}
			if err := table.Append("shipments", result.Shipments.Repaired, result.Shipments.Pushed, result.Shipments.Pulled); err != nil {
				return err
			}
			if err := table.Render(); err != nil {
				return err
			}
			printf(cmd, "last sync: %s\n", formatMillis(last))
			return nil
		},
	}
}
