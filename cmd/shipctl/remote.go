package main

import (
	"github.com/spf13/cobra"
)

func newRemoteCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage the persisted remote endpoint and API key",
	}

	var endpoint, apiKey string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store the remote endpoint and API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.app.Settings.SetRemoteCredentials(cmd.Context(), endpoint, apiKey); err != nil {
				return err
			}
			s.app.Remote.Reconfigure()
			printf(cmd, "remote credentials saved\n")
			return nil
		},
	}
	setCmd.Flags().StringVar(&endpoint, "url", "", "postgres endpoint url")
	setCmd.Flags().StringVar(&apiKey, "api-key", "", "api key used as the database password")
	_ = setCmd.MarkFlagRequired("url")
	_ = setCmd.MarkFlagRequired("api-key")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored remote credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.app.Settings.ClearRemoteCredentials(cmd.Context()); err != nil {
				return err
			}
			s.app.Remote.Reconfigure()
			printf(cmd, "remote credentials cleared\n")
			return nil
		},
	}

	cmd.AddCommand(setCmd, clearCmd)
	return cmd
}
