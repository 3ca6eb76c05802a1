package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/panelkit/panelkit/internal/config"
	"github.com/panelkit/panelkit/internal/secret"
)

func init() { //nolint: gochecknoinits
	configCmd.Flags().BoolVar(&dumpJSON, "json", false, "Print the configuration as JSON")

	rootCmd.AddCommand(configCmd)
}

var (
	dumpJSON bool

	configCmd = &cobra.Command{
		Use:     "config",
		Short:   "Print the effective process configuration with passwords masked",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := dumpConfig(cfg, dumpJSON)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), out)

			return err
		},
	}
)

// dumpConfig renders c with its passwords replaced by the mask.
func dumpConfig(c config.Config, asJSON bool) (string, error) {
	c.DB.Password = secret.Present(c.DB.Password)
	c.Cache.Valkey.Password = secret.Present(c.Cache.Valkey.Password)

	if asJSON {
		return config.DumpConfigJSON(&c)
	}

	return config.DumpConfig(&c)
}
