package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/obsidianstack/sensornode/node/internal/alerts"
	"github.com/obsidianstack/sensornode/node/internal/schedule"
	"github.com/obsidianstack/sensornode/node/internal/sensor"
	"github.com/obsidianstack/sensornode/node/internal/stats"
	"github.com/obsidianstack/sensornode/pkg/types"
)

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Started   time.Time
	Elapsed   time.Duration
	Ticks     int
	Alerts    int
	Clamped   int
	Cancelled bool
	Stats     map[types.SensorKind]stats.RunningStats
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces the wall clock, typically with a schedule.FakeClock.
func WithClock(c schedule.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithModel sets the sensor model. The default model is uniform and seeded
// from the current time.
func WithModel(m *sensor.Model) Option {
	return func(co *Coordinator) { co.model = m }
}

// WithSinks appends record consumers.
func WithSinks(sinks ...Sink) Option {
	return func(co *Coordinator) { co.sinks = append(co.sinks, sinks...) }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(co *Coordinator) { co.log = l }
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(co *Coordinator) { co.runID = id }
}

// WithAlertPolicy selects the alert mode (alerts.ModeEveryTick or
// alerts.ModeOnChange) and clear hysteresis.
func WithAlertPolicy(mode string, hysteresis float64) Option {
	return func(co *Coordinator) {
		co.alertMode = mode
		co.hysteresis = hysteresis
	}
}

// Coordinator runs the sampling pipeline.
type Coordinator struct {
	settings   Settings
	clock      schedule.Clock
	model      *sensor.Model
	sinks      []Sink
	log        *slog.Logger
	runID      string
	alertMode  string
	hysteresis float64
}

// New validates settings and returns a Coordinator. Invalid settings yield
// an error wrapping ErrConfigInvalid.
func New(settings Settings, opts ...Option) (*Coordinator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	c := &Coordinator{
		settings:  settings,
		clock:     schedule.RealClock{},
		log:       slog.Default(),
		alertMode: alerts.ModeEveryTick,
	}
	for _, o := range opts {
		o(c)
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}
	c.log = c.log.With("run_id", c.runID)
	if c.model == nil {
		c.model = sensor.NewModel(sensor.NewRand(uint64(time.Now().UnixNano())), sensor.WithLogger(c.log))
	}
	return c, nil
}

// RunID returns the identifier attached to every record of this coordinator.
func (c *Coordinator) RunID() string { return c.runID }

// Run executes the schedule until the run duration has passed or ctx is
// cancelled. Cancellation is not an error: the returned Summary has
// Cancelled set and reflects exactly the records that were emitted.
func (c *Coordinator) Run(ctx context.Context) (Summary, error) {
	sched, err := schedule.New(c.settings.Intervals(), c.settings.Duration, c.settings.Unbounded)
	if err != nil {
		return Summary{}, fmt.Errorf("pipeline: %w", err)
	}
	kinds := c.settings.Kinds()
	tracker := stats.NewTracker(kinds...)
	monitor := alerts.NewMonitor(c.alertMode, c.hysteresis, c.log)
	clampedBefore := c.model.Clamped()

	start := c.clock.Now()
	sum := Summary{RunID: c.runID, Started: start}

	c.log.Info("pipeline: run started",
		"sensors", len(kinds),
		"duration", c.settings.Duration,
		"unbounded", c.settings.Unbounded,
		"alert_mode", monitor.Mode(),
	)

	for {
		tick, ok := sched.Next()
		if !ok {
			break
		}
		if err := schedule.Wait(ctx, c.clock, start, tick); err != nil {
			sum.Cancelled = true
			c.log.Info("pipeline: run cancelled", "reason", err, "next_offset", tick.Offset)
			break
		}

		rec := c.step(tick, start, sum.Ticks, tracker, monitor)
		for _, s := range c.sinks {
			s.Emit(rec)
		}
		sum.Ticks++
		if rec.Alert != nil {
			sum.Alerts++
		}
	}

	sum.Elapsed = c.clock.Now().Sub(start)
	sum.Stats = tracker.Snapshot()
	sum.Clamped = c.model.Clamped() - clampedBefore

	for _, s := range c.sinks {
		if err := s.Flush(); err != nil {
			c.log.Warn("pipeline: sink flush failed", "err", err)
		}
	}

	c.log.Info("pipeline: run finished",
		"ticks", sum.Ticks,
		"alerts", sum.Alerts,
		"cancelled", sum.Cancelled,
		"elapsed", sum.Elapsed,
	)
	return sum, nil
}

// step samples one tick and assembles its record.
func (c *Coordinator) step(tick schedule.Tick, start time.Time, seq int, tracker *stats.Tracker, monitor *alerts.Monitor) TickRecord {
	cfg := c.settings.Sensors[tick.Kind]
	r := types.Reading{
		Kind:      tick.Kind,
		Value:     c.model.Sample(tick.Kind, cfg.Bounds),
		Timestamp: start.Add(tick.Offset),
	}
	snap := tracker.Observe(r)
	ev := monitor.Observe(r, c.settings.Thresholds[tick.Kind])

	c.log.Debug("pipeline: tick",
		"sensor", r.Kind.String(),
		"offset", tick.Offset,
		"value", r.Value,
		"alert", ev != nil,
	)
	return TickRecord{
		RunID:   c.runID,
		Seq:     seq,
		Offset:  tick.Offset,
		Reading: r,
		Stats:   snap,
		Alert:   ev,
	}
}
