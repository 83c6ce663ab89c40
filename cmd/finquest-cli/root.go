package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"finquest/internal/backend"
	"finquest/internal/cli"
	"finquest/internal/config"
	"finquest/internal/log"
)

var flagLogLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "finquest-cli",
		Short:         "FinQuest spending forecasts from the terminal",
		Long:          "Run the month-end spending forecast, sync live transactions and link sandbox accounts against the configured FinQuest backend.",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.LoadEnvFile()
		},
	}
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newForecastCmd(),
		newSyncCmd(),
		newSandboxLinkCmd(),
		newSheetsAuthCmd(),
	)
	return root
}

// session is what every subcommand needs: configuration, a logger and the
// opened backend.
type session struct {
	cfg    *config.Config
	logger *log.Logger
	result *backend.BackendResult
	app    *cli.App
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(flagLogLevel).WithComponent(log.ComponentCLI)

	result, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app, err := cli.NewApp(cfg, result, nil, logger)
	if err != nil {
		_ = result.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, result: result, app: app}, nil
}

func (s *session) Close() {
	if err := s.result.Close(); err != nil {
		s.logger.Warn("Failed to close backend", log.FieldError, err)
	}
}

func errNoPlaid(action string) error {
	return fmt.Errorf("%s needs PLAID_CLIENT_ID and PLAID_SECRET", action)
}
