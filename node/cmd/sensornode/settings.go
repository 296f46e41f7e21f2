package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/sensornode/node/internal/config"
)

func newSettingsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or adjust sampling rates, thresholds and other settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print every adjustable setting and its current value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, k := range config.Keys() {
				v, err := cfg.Get(k)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\n", k, v)
			}
			return tw.Flush()
		},
	}

	set := &cobra.Command{
		Use:     "set <key> <value> [<key> <value>...]",
		Short:   "Change settings and save them to the config file",
		Example: "  sensornode settings set temperature_sampling_rate 2 temperature_threshold 27.5",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected key value pairs, got %d arguments", len(args))
			}
			return nil
		},
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			for i := 0; i < len(args); i += 2 {
				if err := cfg.Set(args[i], args[i+1]); err != nil {
					return err
				}
			}
			if err := config.Save(*configPath, cfg); err != nil {
				return err
			}
			for i := 0; i < len(args); i += 2 {
				v, _ := cfg.Get(args[i])
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[i], v)
			}
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}

func newValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and report the first problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			s, err := cfg.Settings()
			if err != nil {
				return err
			}
			for _, k := range s.Kinds() {
				ss := s.Sensors[k]
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s every %-4v range [%g, %g]  alert above %g\n",
					k, ss.Interval, ss.Bounds.Min, ss.Bounds.Max, s.Thresholds[k])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", *configPath)
			return nil
		},
	}
}
