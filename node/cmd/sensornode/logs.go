package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/sensornode/node/internal/config"
	"github.com/obsidianstack/sensornode/node/internal/logview"
	"github.com/obsidianstack/sensornode/node/internal/metrics"
)

func newLogsCmd(configPath *string) *cobra.Command {
	var (
		follow bool
		lines  int
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the readings log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			path := cfg.Storage.LogFilePath
			if !follow {
				err := logview.Print(path, lines, cmd.OutOrStdout())
				if errors.Is(err, logview.ErrNoLog) {
					fmt.Fprintln(cmd.OutOrStdout(), "No readings logged yet.")
					return nil
				}
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return logview.Follow(ctx, path, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing lines as they are logged")
	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "print only the last n lines (0 prints all)")
	return cmd
}

func newStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics exported by the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.MetricsFile == "" {
				return errors.New("storage.metrics_file is not set; no statistics are exported")
			}
			snap, err := metrics.ReadFile(cfg.Storage.MetricsFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if snap.RunID != "" {
				fmt.Fprintf(out, "run %s\n", snap.RunID)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SENSOR\tREADINGS\tLAST\tMIN\tMAX\tMEAN\tALERTS")
			for _, s := range snap.Sensors {
				fmt.Fprintf(tw, "%s\t%.0f\t%.2f\t%.2f\t%.2f\t%.2f\t%.0f\n",
					s.Kind, s.Readings, s.Value, s.Min, s.Max, s.Mean, s.Alerts)
			}
			return tw.Flush()
		},
	}
}
