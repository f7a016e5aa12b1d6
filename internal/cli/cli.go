// Package cli implements sentivault-cli, the operator tool for key
// generation, database migrations, maintenance sweeps and ad-hoc file
// transfer against a running server.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCmd builds the command tree. Output goes to the command's out and
// err writers so callers and tests can redirect it.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sentivault-cli",
		Short:         "Operator tool for the sentivault server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the server config file (JSON or YAML)")

	root.AddCommand(
		newKeygenCmd(),
		newMigrateCmd(&configPath),
		newSweepCmd(&configPath),
		newUploadCmd(),
		newDownloadCmd(),
		newDeleteCmd(),
	)
	return root
}
