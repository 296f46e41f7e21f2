package alerts

import (
	"log/slog"

	"github.com/obsidianstack/sensornode/pkg/types"
)

// Alert modes.
const (
	// ModeEveryTick emits an event for every reading above threshold.
	ModeEveryTick = "every_tick"
	// ModeOnChange emits only when a kind moves from normal to alerting.
	ModeOnChange = "on_change"
)

// Per-kind alert states.
const (
	StateNormal   = "normal"
	StateAlerting = "alerting"
)

// Monitor tracks the alert state of each sensor kind across a run.
//
// A kind enters StateAlerting on the first reading above threshold and
// returns to StateNormal once a reading is at or below threshold minus the
// hysteresis. Monitor is owned by the pipeline coordinator and is not safe
// for concurrent use.
type Monitor struct {
	mode       string
	hysteresis float64
	log        *slog.Logger

	state  map[types.SensorKind]string
	raised map[types.SensorKind]int
}

// NewMonitor returns a Monitor. An empty or unknown mode selects
// ModeEveryTick; a negative hysteresis is treated as zero.
func NewMonitor(mode string, hysteresis float64, log *slog.Logger) *Monitor {
	if mode != ModeOnChange {
		mode = ModeEveryTick
	}
	if hysteresis < 0 {
		hysteresis = 0
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		mode:       mode,
		hysteresis: hysteresis,
		log:        log,
		state:      make(map[types.SensorKind]string),
		raised:     make(map[types.SensorKind]int),
	}
}

// Mode returns the active alert mode.
func (m *Monitor) Mode() string { return m.mode }

// State returns the current state of kind.
func (m *Monitor) State(kind types.SensorKind) string {
	if s, ok := m.state[kind]; ok {
		return s
	}
	return StateNormal
}

// Raised returns how many normal→alerting transitions kind has made.
func (m *Monitor) Raised(kind types.SensorKind) int { return m.raised[kind] }

// Observe evaluates r against threshold, updates the state of r.Kind and
// returns the event to emit, if any.
func (m *Monitor) Observe(r types.Reading, threshold float64) *types.AlertEvent {
	ev := Evaluate(r, threshold)
	prev := m.State(r.Kind)

	switch {
	case ev != nil && prev == StateNormal:
		m.state[r.Kind] = StateAlerting
		m.raised[r.Kind]++
		m.log.Warn("alerts: alert raised",
			"sensor", r.Kind.String(), "value", r.Value, "threshold", threshold)
		return ev

	case ev == nil && prev == StateAlerting && r.Value <= threshold-m.hysteresis:
		m.state[r.Kind] = StateNormal
		m.log.Info("alerts: alert cleared",
			"sensor", r.Kind.String(), "value", r.Value, "threshold", threshold)
	}

	if m.mode == ModeOnChange {
		return nil
	}
	return ev
}
