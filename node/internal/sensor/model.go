package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/obsidianstack/sensornode/pkg/types"
)

// Generator modes accepted by NewModel.
const (
	ModeUniform = "uniform"
	ModeWalk    = "walk"
)

// DefaultWalkStep is the largest single walk step as a fraction of the span.
const DefaultWalkStep = 0.05

// ErrInvalidBounds is returned by NewBounds when min >= max or either side is not finite.
var ErrInvalidBounds = errors.New("invalid bounds")

// Bounds is the closed value range [Min, Max] of one sensor channel.
type Bounds struct {
	Min float64
	Max float64
}

// NewBounds validates and returns a Bounds. min must be strictly less than max.
func NewBounds(min, max float64) (Bounds, error) {
	b := Bounds{Min: min, Max: max}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

// Validate reports ErrInvalidBounds for an empty, inverted or non-finite range.
func (b Bounds) Validate() error {
	if math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) || math.IsNaN(b.Min) || math.IsNaN(b.Max) {
		return fmt.Errorf("%w: min %v and max %v must be finite", ErrInvalidBounds, b.Min, b.Max)
	}
	if !(b.Min < b.Max) {
		return fmt.Errorf("%w: min %v must be less than max %v", ErrInvalidBounds, b.Min, b.Max)
	}
	return nil
}

// Contains reports whether v lies in [Min, Max].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// At returns the point a fraction u of the way from Min to Max. It never
// forms Max - Min, so it stays finite for any finite bounds.
func (b Bounds) At(u float64) float64 {
	return b.Min*(1-u) + b.Max*u
}

// NewRand returns a PCG-backed generator for seed. The same seed always
// yields the same sequence, which tests rely on.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Option configures a Model.
type Option func(*Model)

// WithMode selects ModeUniform or ModeWalk. Unknown values keep the default.
func WithMode(mode string) Option {
	return func(m *Model) {
		if mode == ModeUniform || mode == ModeWalk {
			m.mode = mode
		}
	}
}

// WithWalkStep sets the walk step as a fraction of the span, in (0, 1].
func WithWalkStep(step float64) Option {
	return func(m *Model) {
		if step > 0 && step <= 1 {
			m.step = step
		}
	}
}

// WithLogger sets the logger used for out-of-range reports.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.log = l }
}

// Model generates synthetic sensor values.
//
// Model is not safe for concurrent use; the pipeline coordinator is its only caller.
type Model struct {
	rng  *rand.Rand
	mode string
	step float64
	pos  map[types.SensorKind]float64 // walk position per kind, as a fraction of the range
	log  *slog.Logger

	clamped int
}

// NewModel returns a Model drawing from rng.
func NewModel(rng *rand.Rand, opts ...Option) *Model {
	m := &Model{
		rng:  rng,
		mode: ModeUniform,
		step: DefaultWalkStep,
		pos:  make(map[types.SensorKind]float64),
		log:  slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Mode returns the active generator mode.
func (m *Model) Mode() string { return m.mode }

// Clamped returns how many draws had to be clamped back into range.
func (m *Model) Clamped() int { return m.clamped }

// Sample returns one value for kind drawn from b. The result always lies in
// [b.Min, b.Max].
func (m *Model) Sample(kind types.SensorKind, b Bounds) float64 {
	var raw float64
	switch m.mode {
	case ModeWalk:
		raw = b.At(m.walk(kind))
	default:
		raw = b.At(m.rng.Float64())
	}

	v := raw
	if !b.Contains(raw) {
		v = clamp(raw, b)
		m.clamped++
		m.log.Warn("sensor: generator out of range, clamped",
			"sensor", kind.String(), "raw", raw, "min", b.Min, "max", b.Max, "value", v)
	}
	return v
}

// walk moves the position of kind by a uniform step in [-step, +step],
// reflecting off 0 and 1, and returns the new position. A kind starts at the
// middle of its range.
func (m *Model) walk(kind types.SensorKind) float64 {
	u, ok := m.pos[kind]
	if !ok {
		u = 0.5
	}
	u += (m.rng.Float64()*2 - 1) * m.step
	if u > 1 {
		u = 2 - u
	}
	if u < 0 {
		u = -u
	}
	m.pos[kind] = u
	return u
}

func clamp(v float64, b Bounds) float64 {
	switch {
	case v != v: // NaN
		return b.Min
	case v < b.Min:
		return b.Min
	case v > b.Max:
		return b.Max
	default:
		return v
	}
}
