package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// setting is one key editable through Set.
type setting struct {
	get func(*Config) string
	set func(*Config, string) error
}

func intSetting(field func(*Config) *int) setting {
	return setting{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("not an integer: %q", v)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatSetting(field func(*Config) *float64) setting {
	return setting{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("not a number: %q", v)
			}
			*field(c) = f
			return nil
		},
	}
}

func boolSetting(field func(*Config) *bool) setting {
	return setting{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("not a boolean: %q", v)
			}
			*field(c) = b
			return nil
		},
	}
}

func stringSetting(field func(*Config) *string) setting {
	return setting{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = strings.TrimSpace(v)
			return nil
		},
	}
}

var settings = map[string]setting{
	"temperature_sampling_rate": intSetting(func(c *Config) *int { return &c.Sensors.TemperatureSamplingRate }),
	"humidity_sampling_rate":    intSetting(func(c *Config) *int { return &c.Sensors.HumiditySamplingRate }),
	"light_sampling_rate":       intSetting(func(c *Config) *int { return &c.Sensors.LightSamplingRate }),
	"temperature_threshold":     floatSetting(func(c *Config) *float64 { return &c.Alerts.TemperatureThreshold }),
	"humidity_threshold":        floatSetting(func(c *Config) *float64 { return &c.Alerts.HumidityThreshold }),
	"light_threshold":           floatSetting(func(c *Config) *float64 { return &c.Alerts.LightThreshold }),
	"temperature_min":           floatSetting(func(c *Config) *float64 { return &c.Sensors.Temperature.Min }),
	"temperature_max":           floatSetting(func(c *Config) *float64 { return &c.Sensors.Temperature.Max }),
	"humidity_min":              floatSetting(func(c *Config) *float64 { return &c.Sensors.Humidity.Min }),
	"humidity_max":              floatSetting(func(c *Config) *float64 { return &c.Sensors.Humidity.Max }),
	"light_min":                 floatSetting(func(c *Config) *float64 { return &c.Sensors.Light.Min }),
	"light_max":                 floatSetting(func(c *Config) *float64 { return &c.Sensors.Light.Max }),
	"generator":                 stringSetting(func(c *Config) *string { return &c.Sensors.Generator }),
	"alert_mode":                stringSetting(func(c *Config) *string { return &c.Alerts.Mode }),
	"hysteresis":                floatSetting(func(c *Config) *float64 { return &c.Alerts.Hysteresis }),
	"log_file_path":             stringSetting(func(c *Config) *string { return &c.Storage.LogFilePath }),
	"metrics_file":              stringSetting(func(c *Config) *string { return &c.Storage.MetricsFile }),
	"real_time_graph":           boolSetting(func(c *Config) *bool { return &c.Display.RealTimeGraph }),
	"display":                   boolSetting(func(c *Config) *bool { return &c.Display.Enabled }),
	"unbounded":                 boolSetting(func(c *Config) *bool { return &c.Run.Unbounded }),
	"duration": {
		get: func(c *Config) string { return c.Run.Duration.String() },
		set: func(c *Config, v string) error { return c.Run.Duration.UnmarshalText([]byte(v)) },
	},
	"seed": {
		get: func(c *Config) string { return strconv.FormatUint(c.Run.Seed, 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return fmt.Errorf("not an unsigned integer: %q", v)
			}
			c.Run.Seed = n
			return nil
		},
	},
}

// Keys returns every key Set accepts, sorted.
func Keys() []string {
	out := make([]string, 0, len(settings))
	for k := range settings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the current value of key formatted the way Set accepts it.
func (c *Config) Get(key string) (string, error) {
	s, ok := settings[key]
	if !ok {
		return "", fmt.Errorf("config: unknown setting %q", key)
	}
	return s.get(c), nil
}

// Set parses value into the field named by key. The change is applied only
// if the whole config still validates.
func (c *Config) Set(key, value string) error {
	s, ok := settings[key]
	if !ok {
		return fmt.Errorf("config: unknown setting %q", key)
	}
	next := *c
	if err := s.set(&next, value); err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	if err := validate(&next); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	*c = next
	return nil
}
