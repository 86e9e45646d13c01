package main

import (
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
)

func newModeCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Show or change which store serves reads and writes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the active mode",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				printf(cmd, "%s (deletion policy: %s)\n", s.app.Switch.Mode(), s.app.Switch.Policy())
				return nil
			},
		},
		&cobra.Command{
			Use:       "set offline|online",
			Short:     "Persist a new mode",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{enums.ModeOffline.String(), enums.ModeOnline.String()},
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := enums.ParseMode(args[0])
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mode")
				}
				if err := s.app.Switch.SetMode(cmd.Context(), m); err != nil {
					return err
				}
				printf(cmd, "mode set to %s\n", m)
				return nil
			},
		},
	)
	return cmd
}
