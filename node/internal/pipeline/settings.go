package pipeline

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/obsidianstack/sensornode/node/internal/sensor"
	"github.com/obsidianstack/sensornode/pkg/types"
)

// ErrConfigInvalid wraps every reason a run refuses to start.
var ErrConfigInvalid = errors.New("invalid configuration")

// SensorSettings is the sampling configuration of one sensor kind.
type SensorSettings struct {
	Interval time.Duration
	Bounds   sensor.Bounds
}

// Settings is everything the core needs for a run. It is built once at
// startup and not modified while a run is in progress.
type Settings struct {
	Sensors    map[types.SensorKind]SensorSettings
	Thresholds map[types.SensorKind]float64

	// Duration bounds the run; ticks due at exactly Duration still fire.
	// Ignored when Unbounded is set.
	Duration  time.Duration
	Unbounded bool
}

// Kinds returns the configured kinds in enumeration order.
func (s Settings) Kinds() []types.SensorKind {
	out := make([]types.SensorKind, 0, len(s.Sensors))
	for _, k := range types.Kinds {
		if _, ok := s.Sensors[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Intervals returns the sampling interval per configured kind.
func (s Settings) Intervals() map[types.SensorKind]time.Duration {
	out := make(map[types.SensorKind]time.Duration, len(s.Sensors))
	for k, ss := range s.Sensors {
		out[k] = ss.Interval
	}
	return out
}

// Validate checks every field and returns an error wrapping ErrConfigInvalid
// that names the first offending field.
func (s Settings) Validate() error {
	if len(s.Sensors) == 0 {
		return fmt.Errorf("%w: no sensors configured", ErrConfigInvalid)
	}
	for k := range s.Sensors {
		if !k.Valid() {
			return fmt.Errorf("%w: unknown sensor kind %d", ErrConfigInvalid, int(k))
		}
	}
	for _, k := range s.Kinds() {
		ss := s.Sensors[k]
		if ss.Interval <= 0 {
			return fmt.Errorf("%w: %s: sampling interval must be positive, got %v", ErrConfigInvalid, k, ss.Interval)
		}
		if err := ss.Bounds.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrConfigInvalid, k, err)
		}
		th, ok := s.Thresholds[k]
		if !ok {
			return fmt.Errorf("%w: %s: alert threshold is required", ErrConfigInvalid, k)
		}
		if math.IsNaN(th) {
			return fmt.Errorf("%w: %s: alert threshold must be a number", ErrConfigInvalid, k)
		}
	}
	if !s.Unbounded && s.Duration < 0 {
		return fmt.Errorf("%w: run duration must not be negative, got %v", ErrConfigInvalid, s.Duration)
	}
	return nil
}
