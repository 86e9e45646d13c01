package main

import (
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shipbridge/internal/transfer"
)

func newOrdersCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, export and import orders in the active store",
	}
	cmd.AddCommand(newOrdersListCmd(s), newOrdersExportCmd(s), newOrdersImportCmd(s))
	return cmd
}

func newOrdersListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the orders of the active store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := s.app.Switch.ListOrders(cmd.Context())
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "UUID", "Customer", "City", "Material", "Qty", "Status", "Updated")
			for _, o := range list {
				if err := table.Append(o.UUID, o.Customer, o.City, o.Material, strconv.Itoa(o.Qty), o.Status.String(), formatMillis(o.UpdatedAt)); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}

func newOrdersExportCmd(s *session) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the orders of the active store as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			var w io.Writer = cmd.OutOrStdout()
			if path != "" && path != "-" {
				f, createErr := os.Create(path)
				if createErr != nil {
					return createErr
				}
				defer func() { err = multierr.Append(err, f.Close()) }()
				w = f
			}
			target, err := s.app.Switch.Target(cmd.Context())
			if err != nil {
				return err
			}
			n, err := transfer.ExportOrders(cmd.Context(), target, w)
			if err != nil {
				return err
			}
			if path != "" && path != "-" {
				printf(cmd, "exported %d orders to %s\n", n, path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "output file (default stdout)")
	return cmd
}

func newOrdersImportCmd(s *session) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load orders from CSV into the active store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.Reader = cmd.InOrStdin()
			if path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			target, err := s.app.Switch.Target(cmd.Context())
			if err != nil {
				return err
			}
			result, err := transfer.ImportOrders(cmd.Context(), target, r)
			printf(cmd, "created %d, updated %d, skipped %d, failed %d\n", result.Created, result.Updated, result.Skipped, result.Failed)
			return err
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "input file (default stdin)")
	return cmd
}
