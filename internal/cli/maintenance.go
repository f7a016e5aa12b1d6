package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server"
	"github.com/dmitrijs2005/sentivault/internal/server/config"
	"github.com/dmitrijs2005/sentivault/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			repos, err := repomanager.Open(cmd.Context(), cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer repos.Close()

			if err := repos.RunMigrations(cmd.Context()); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile stored blobs with metadata once and print what was removed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.NewJSON(cmd.ErrOrStderr(), cfg.LogLevel)

			app, err := server.NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
