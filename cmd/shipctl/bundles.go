package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newBundlesCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundles",
		Short: "Inspect shipment bundles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report orders held by more than one live shipment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			violations, err := s.app.Bundles.Violations(cmd.Context())
			if err != nil {
				return err
			}
			if len(violations) == 0 {
				printf(cmd, "no exclusivity violations\n")
				return nil
			}
			table := newTable(cmd.OutOrStdout(), "Order", "Shipments")
			for _, v := range violations {
				if err := table.Append(v.OrderUUID, strings.Join(v.Shipments, ", ")); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
			return fmt.Errorf("%d orders are bundled more than once", len(violations))
		},
	})
	return cmd
}
