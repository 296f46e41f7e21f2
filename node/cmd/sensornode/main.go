// Command sensornode runs the simulated sensor node and manages its config
// and logs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/sensornode/node/internal/pipeline"
)

const defaultConfigPath = "config.toml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sensornode:", err)
		if errors.Is(err, pipeline.ErrConfigInvalid) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sensornode",
		Short:         "Simulated temperature, humidity and light sensor node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file (.toml or .yaml)")

	root.AddCommand(
		newRunCmd(&configPath),
		newSettingsCmd(&configPath),
		newLogsCmd(&configPath),
		newStatsCmd(&configPath),
		newValidateCmd(&configPath),
	)
	return root
}
