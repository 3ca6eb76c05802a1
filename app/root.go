// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/panelkit/panelkit/internal/config"
)

var (
	configPath string // Path to the configuration directory

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "panelkit",
	Short: "panelkit is a server-rendered admin panel",
	Long: `panelkit is a server-rendered admin panel with local accounts, two-factor
authentication, an admin area and database-backed application settings.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration directory holding main.toml")
}

// loadConfig reads the configuration for commands that need it.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error

	cfg, err = config.ReadConfig(configPath)

	return err
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
