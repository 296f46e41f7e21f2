package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/sensornode/node/internal/alerts"
	"github.com/obsidianstack/sensornode/node/internal/pipeline"
	"github.com/obsidianstack/sensornode/node/internal/sensor"
	"github.com/obsidianstack/sensornode/pkg/types"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultSamplingRate     = 1 // seconds
	DefaultDuration         = 30 * time.Second
	DefaultLogFilePath      = "sensor_data.log"
	DefaultGraphHistory     = 10
	DefaultMetricsFlushEach = 10
)

// Config is the whole config file.
type Config struct {
	Sensors SensorsConfig `yaml:"sensors" toml:"sensors"`
	Alerts  AlertsConfig  `yaml:"alerts" toml:"alerts"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Display DisplayConfig `yaml:"display" toml:"display"`
	Run     RunConfig     `yaml:"run" toml:"run"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// SensorsConfig holds sampling rates and value ranges.
type SensorsConfig struct {
	// Sampling rates are whole seconds between readings.
	TemperatureSamplingRate int `yaml:"temperature_sampling_rate" toml:"temperature_sampling_rate"`
	HumiditySamplingRate    int `yaml:"humidity_sampling_rate" toml:"humidity_sampling_rate"`
	LightSamplingRate       int `yaml:"light_sampling_rate" toml:"light_sampling_rate"`

	// Generator is uniform | walk.
	Generator string `yaml:"generator" toml:"generator"`
	// WalkStep is the largest walk step as a fraction of the range, in (0,1].
	WalkStep float64 `yaml:"walk_step" toml:"walk_step"`

	Temperature RangeConfig `yaml:"temperature" toml:"temperature"`
	Humidity    RangeConfig `yaml:"humidity" toml:"humidity"`
	Light       RangeConfig `yaml:"light" toml:"light"`
}

// RangeConfig is the inclusive range a sensor's values are drawn from.
type RangeConfig struct {
	Min float64 `yaml:"min" toml:"min"`
	Max float64 `yaml:"max" toml:"max"`
}

// AlertsConfig holds per-sensor thresholds and the alert policy.
type AlertsConfig struct {
	TemperatureThreshold float64 `yaml:"temperature_threshold" toml:"temperature_threshold"`
	HumidityThreshold    float64 `yaml:"humidity_threshold" toml:"humidity_threshold"`
	LightThreshold       float64 `yaml:"light_threshold" toml:"light_threshold"`

	// Mode is every_tick | on_change.
	Mode       string  `yaml:"mode" toml:"mode"`
	Hysteresis float64 `yaml:"hysteresis" toml:"hysteresis"`
}

// StorageConfig configures the log file and the optional metrics file.
type StorageConfig struct {
	LogFilePath string `yaml:"log_file_path" toml:"log_file_path"`
	MaxSizeMB   int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups" toml:"max_backups"`

	// MetricsFile enables the Prometheus textfile export when set.
	MetricsFile string `yaml:"metrics_file" toml:"metrics_file"`
	FlushEvery  int    `yaml:"flush_every" toml:"flush_every"`
}

// DisplayConfig controls the console output.
type DisplayConfig struct {
	Enabled       bool `yaml:"enabled" toml:"enabled"`
	RealTimeGraph bool `yaml:"real_time_graph" toml:"real_time_graph"`
	GraphHistory  int  `yaml:"graph_history" toml:"graph_history"`
}

// RunConfig bounds a run.
type RunConfig struct {
	Duration  Duration `yaml:"duration" toml:"duration"`
	Unbounded bool     `yaml:"unbounded" toml:"unbounded"`
	// Seed for the value generator; 0 derives one from the clock.
	Seed uint64 `yaml:"seed" toml:"seed"`
}

// LogConfig selects the operational log level and handler.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug | info | warn | error
	Format string `yaml:"format" toml:"format"` // text | json
}

// Load reads and parses the config file at path. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data, formatOf(path))
}

// Parse decodes data in the given format ("toml" or "yaml") on top of the
// defaults and validates the result.
func Parse(data []byte, format string) (*Config, error) {
	cfg := defaults()
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension. The file
// is replaced atomically.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	switch formatOf(path) {
	case "toml":
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("config: encode toml: %w", err)
		}
	default:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("config: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("config: encode yaml: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("config: save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	return nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Sensors: SensorsConfig{
			TemperatureSamplingRate: DefaultSamplingRate,
			HumiditySamplingRate:    DefaultSamplingRate,
			LightSamplingRate:       DefaultSamplingRate,
			Generator:               sensor.ModeUniform,
			WalkStep:                sensor.DefaultWalkStep,
			Temperature:             RangeConfig{Min: 20, Max: 30},
			Humidity:                RangeConfig{Min: 30, Max: 70},
			Light:                   RangeConfig{Min: 0, Max: 100},
		},
		Alerts: AlertsConfig{
			TemperatureThreshold: 28,
			HumidityThreshold:    60,
			LightThreshold:       80,
			Mode:                 alerts.ModeEveryTick,
		},
		Storage: StorageConfig{
			LogFilePath: DefaultLogFilePath,
			FlushEvery:  DefaultMetricsFlushEach,
		},
		Display: DisplayConfig{
			Enabled:       true,
			RealTimeGraph: true,
			GraphHistory:  DefaultGraphHistory,
		},
		Run: RunConfig{
			Duration: Duration(DefaultDuration),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// validate checks the file-level fields, then resolves the core settings so
// range and interval problems are reported at load time.
func validate(cfg *Config) error {
	for _, r := range []struct {
		key  string
		rate int
	}{
		{"temperature_sampling_rate", cfg.Sensors.TemperatureSamplingRate},
		{"humidity_sampling_rate", cfg.Sensors.HumiditySamplingRate},
		{"light_sampling_rate", cfg.Sensors.LightSamplingRate},
	} {
		if int64(r.rate) > math.MaxInt64/int64(time.Second) {
			return fmt.Errorf("%w: sensors.%s: %d seconds is too long", pipeline.ErrConfigInvalid, r.key, r.rate)
		}
	}
	switch cfg.Sensors.Generator {
	case sensor.ModeUniform, sensor.ModeWalk:
	default:
		return fmt.Errorf("%w: sensors.generator: unknown mode %q", pipeline.ErrConfigInvalid, cfg.Sensors.Generator)
	}
	if cfg.Sensors.WalkStep <= 0 || cfg.Sensors.WalkStep > 1 {
		return fmt.Errorf("%w: sensors.walk_step must be in (0,1], got %v", pipeline.ErrConfigInvalid, cfg.Sensors.WalkStep)
	}
	switch cfg.Alerts.Mode {
	case alerts.ModeEveryTick, alerts.ModeOnChange:
	default:
		return fmt.Errorf("%w: alerts.mode: unknown mode %q", pipeline.ErrConfigInvalid, cfg.Alerts.Mode)
	}
	if cfg.Alerts.Hysteresis < 0 {
		return fmt.Errorf("%w: alerts.hysteresis must not be negative", pipeline.ErrConfigInvalid)
	}
	if cfg.Storage.LogFilePath == "" {
		return fmt.Errorf("%w: storage.log_file_path is required", pipeline.ErrConfigInvalid)
	}
	if cfg.Storage.MaxSizeMB < 0 || cfg.Storage.MaxBackups < 0 {
		return fmt.Errorf("%w: storage.max_size_mb and storage.max_backups must not be negative", pipeline.ErrConfigInvalid)
	}
	if cfg.Display.GraphHistory <= 0 {
		return fmt.Errorf("%w: display.graph_history must be positive", pipeline.ErrConfigInvalid)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level: unknown level %q", pipeline.ErrConfigInvalid, cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format: unknown format %q", pipeline.ErrConfigInvalid, cfg.Log.Format)
	}
	_, err := cfg.Settings()
	return err
}

// Settings resolves the file into the core's run settings. The error wraps
// pipeline.ErrConfigInvalid.
func (c *Config) Settings() (pipeline.Settings, error) {
	s := pipeline.Settings{
		Sensors: map[types.SensorKind]pipeline.SensorSettings{
			types.Temperature: sensorSettings(c.Sensors.TemperatureSamplingRate, c.Sensors.Temperature),
			types.Humidity:    sensorSettings(c.Sensors.HumiditySamplingRate, c.Sensors.Humidity),
			types.Light:       sensorSettings(c.Sensors.LightSamplingRate, c.Sensors.Light),
		},
		Thresholds: map[types.SensorKind]float64{
			types.Temperature: c.Alerts.TemperatureThreshold,
			types.Humidity:    c.Alerts.HumidityThreshold,
			types.Light:       c.Alerts.LightThreshold,
		},
		Duration:  time.Duration(c.Run.Duration),
		Unbounded: c.Run.Unbounded,
	}
	if err := s.Validate(); err != nil {
		return pipeline.Settings{}, err
	}
	return s, nil
}

func sensorSettings(rate int, r RangeConfig) pipeline.SensorSettings {
	return pipeline.SensorSettings{
		Interval: time.Duration(rate) * time.Second,
		Bounds:   sensor.Bounds{Min: r.Min, Max: r.Max},
	}
}
