package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace the local snapshot with the live transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if !s.cfg.PlaidConfigured() {
				return errNoPlaid("sync")
			}

			result, err := s.app.Sync.Run(cmd.Context(), uuid.NewString())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s synced %d transactions into the %s backend",
				green("✓"), result.Transactions, s.cfg.DataBackend)
			if result.Dropped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", yellow(fmt.Sprintf("%d skipped", result.Dropped)))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func newSandboxLinkCmd() *cobra.Command {
	var institution string
	cmd := &cobra.Command{
		Use:   "sandbox-link",
		Short: "Link a Plaid sandbox institution without the Link UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if s.app.Credentials == nil {
				return errNoPlaid("sandbox-link")
			}

			itemID, err := s.app.Credentials.SandboxLink(cmd.Context(), institution)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s linked %s as item %s\n", green("✓"), institution, itemID)
			return nil
		},
	}
	cmd.Flags().StringVar(&institution, "institution", "ins_109508", "Sandbox institution id")
	return cmd
}
