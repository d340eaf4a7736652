// Package cli holds the storefront command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "storefront",
		Short:        "Multi-tenant storefront API server",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to the YAML configuration file")

	cmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		createAdminCmd(&configPath),
		createTenantCmd(&configPath),
	)
	return cmd
}
