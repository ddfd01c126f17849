package main

import (
	"fmt"

	"github.com/dogmatiq/structkit/cmd/structkit-inspect/internal/config"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// newRootCommand returns the structkit-inspect command.
func newRootCommand() *cobra.Command {
	var (
		configPath string
		engine     string
		req        request
	)

	cmd := &cobra.Command{
		Use:   "structkit-inspect [path]",
		Short: "Print the records of an on-disk store that share a key prefix",
		Long: `structkit-inspect opens a Pebble or Badger store and prints every
record whose physical key begins with the given prefix, decoded as the
requested value type.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()

			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}

			if len(args) == 1 {
				cfg.Path = args[0]
			}

			if cmd.Flags().Changed("engine") {
				cfg.Engine = config.ParseEngine(engine)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return inspect(cmd.Context(), cmd.OutOrStdout(), cfg, req)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&engine, "engine", "e", string(config.Pebble), "storage engine, pebble or badger")
	flags.StringVarP(&req.Prefix, "prefix", "p", "", "physical key prefix to scan")
	flags.StringVarP(&req.Type, "type", "t", typeString, "value type, one of string, int or uint")

	return cmd
}
