package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/sensornode/node/internal/config"
	"github.com/obsidianstack/sensornode/node/internal/logging"
	"github.com/obsidianstack/sensornode/node/internal/metrics"
	"github.com/obsidianstack/sensornode/node/internal/pipeline"
	"github.com/obsidianstack/sensornode/node/internal/sensor"
	"github.com/obsidianstack/sensornode/node/internal/sink"
)

type runFlags struct {
	duration  string
	forever   bool
	seed      uint64
	noDisplay bool
}

func newRunCmd(configPath *string) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation and log readings",
		Example: "  sensornode run --duration 15s\n" +
			"  sensornode run --forever --seed 7",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg, f); err != nil {
				return err
			}
			return runNode(cmd.Context(), cmd.OutOrStdout(), *configPath, cfg)
		},
	}
	cmd.Flags().StringVarP(&f.duration, "duration", "d", "", "run length, e.g. 15s or PT30S (overrides run.duration)")
	cmd.Flags().BoolVar(&f.forever, "forever", false, "run until interrupted")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "generator seed (overrides run.seed; 0 derives one from the clock)")
	cmd.Flags().BoolVar(&f.noDisplay, "no-display", false, "do not print readings to stdout")
	cmd.MarkFlagsMutuallyExclusive("duration", "forever")
	return cmd
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config, f runFlags) error {
	if cmd.Flags().Changed("duration") {
		if err := cfg.Set("duration", f.duration); err != nil {
			return err
		}
		cfg.Run.Unbounded = false
	}
	if f.forever {
		cfg.Run.Unbounded = true
	}
	if cmd.Flags().Changed("seed") {
		cfg.Run.Seed = f.seed
	}
	if f.noDisplay {
		cfg.Display.Enabled = false
	}
	return nil
}

func runNode(parent context.Context, stdout io.Writer, configPath string, cfg *config.Config) error {
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format, false)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	seed := cfg.Run.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	fileLog, err := sink.NewFileLog(sink.FileLogConfig{
		Path:       cfg.Storage.LogFilePath,
		MaxSizeMB:  cfg.Storage.MaxSizeMB,
		MaxBackups: cfg.Storage.MaxBackups,
	}, logger)
	if err != nil {
		return err
	}
	defer closeLog(fileLog, cfg.Storage.LogFilePath, logger)

	sinks := []pipeline.Sink{fileLog}
	if cfg.Display.Enabled {
		sinks = append(sinks, sink.NewConsole(stdout, sink.ConsoleConfig{
			Graph:        cfg.Display.RealTimeGraph,
			GraphHistory: cfg.Display.GraphHistory,
			Kinds:        settings.Kinds(),
		}))
	}
	if cfg.Storage.MetricsFile != "" {
		sinks = append(sinks, metrics.NewExporter(cfg.Storage.MetricsFile, cfg.Storage.FlushEvery, logger))
	}

	model := sensor.NewModel(sensor.NewRand(seed),
		sensor.WithMode(cfg.Sensors.Generator),
		sensor.WithWalkStep(cfg.Sensors.WalkStep),
		sensor.WithLogger(logger),
	)

	coord, err := pipeline.New(settings,
		pipeline.WithModel(model),
		pipeline.WithSinks(sinks...),
		pipeline.WithLogger(logger),
		pipeline.WithAlertPolicy(cfg.Alerts.Mode, cfg.Alerts.Hysteresis),
	)
	if err != nil {
		return err
	}
	slog.Info("sensornode starting",
		"config", configPath,
		"run_id", coord.RunID(),
		"seed", seed,
		"duration", settings.Duration,
		"unbounded", settings.Unbounded,
	)

	// Settings are fixed for the duration of a run; edits apply to the next one.
	stopWatch := watchConfig(ctx, configPath, logger)
	defer stopWatch()

	sum, err := coord.Run(ctx)
	if err != nil {
		return err
	}
	if n := fileLog.Dropped(); n > 0 {
		slog.Warn("log lines dropped while the writer was busy", "count", n)
	}
	slog.Info("sensornode stopped",
		"run_id", sum.RunID,
		"ticks", sum.Ticks,
		"alerts", sum.Alerts,
		"elapsed", sum.Elapsed.Round(time.Millisecond),
		"cancelled", sum.Cancelled,
	)
	if sum.Cancelled {
		fmt.Fprintln(os.Stderr, "run interrupted; partial results were logged")
	}
	return nil
}

// watchConfig reports config edits made during a run. The returned func
// stops the watcher and waits for it to exit.
func watchConfig(ctx context.Context, path string, log *slog.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := config.Watch(ctx, path, func(*config.Config) {
			log.Info("config changed on disk, applies to the next run", "path", path)
		}); err != nil {
			log.Warn("config watcher stopped", "err", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// closeLog closes the readings log; the close performs its last write.
func closeLog(c io.Closer, path string, log *slog.Logger) {
	if err := c.Close(); err != nil {
		log.Error("closing readings log failed", "path", path, "err", err)
	}
}
