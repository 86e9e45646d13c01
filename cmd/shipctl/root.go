package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shipbridge/internal/app"
)

type bootstrapFunc func(ctx context.Context) (*app.App, error)

// session holds the app for the duration of one command.
type session struct {
	boot bootstrapFunc
	app  *app.App
}

func (s *session) close() error {
	if s.app == nil {
		return nil
	}
	err := s.app.Close()
	s.app = nil
	return err
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:           "shipctl",
		Short:         "Manage shipment orders in the local and remote stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.boot(cmd.Context())
			if err != nil {
				return err
			}
			s.app = a
			return nil
		},
	}

	root.AddCommand(
		newSyncCmd(s),
		newOrdersCmd(s),
		newModeCmd(s),
		newRemoteCmd(s),
		newBundlesCmd(s),
	)
	return root
}

func newTable(w io.Writer, header ...any) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(header...)
	return table
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "never"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
