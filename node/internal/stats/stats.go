package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/obsidianstack/sensornode/pkg/types"
)

// ErrNoData is returned by Mean before any value has been observed.
var ErrNoData = errors.New("no data yet")

// RunningStats is the cumulative count, sum, minimum and maximum of every
// value observed for one sensor kind.
//
// The zero value is an empty aggregate ready for use.
type RunningStats struct {
	count uint64
	sum   float64
	min   float64 // meaningful only when count > 0
	max   float64 // meaningful only when count > 0
}

// Update returns s with v folded in.
func (s RunningStats) Update(v float64) RunningStats {
	if s.count == 0 {
		s.min, s.max = v, v
	} else {
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
	}
	s.count++
	s.sum += v
	return s
}

// Merge combines two aggregates built from disjoint value sets. Merge is
// associative and commutative, and merging with an empty aggregate is the
// identity.
func (s RunningStats) Merge(o RunningStats) RunningStats {
	switch {
	case o.count == 0:
		return s
	case s.count == 0:
		return o
	}
	return RunningStats{
		count: s.count + o.count,
		sum:   s.sum + o.sum,
		min:   math.Min(s.min, o.min),
		max:   math.Max(s.max, o.max),
	}
}

// Count returns the number of observed values.
func (s RunningStats) Count() uint64 { return s.count }

// Sum returns the sum of observed values.
func (s RunningStats) Sum() float64 { return s.sum }

// Empty reports whether nothing has been observed yet.
func (s RunningStats) Empty() bool { return s.count == 0 }

// Min returns the smallest observed value; ok is false when Empty.
func (s RunningStats) Min() (v float64, ok bool) {
	if s.count == 0 {
		return 0, false
	}
	return s.min, true
}

// Max returns the largest observed value; ok is false when Empty.
func (s RunningStats) Max() (v float64, ok bool) {
	if s.count == 0 {
		return 0, false
	}
	return s.max, true
}

// Mean returns Sum/Count, or ErrNoData when nothing has been observed.
func (s RunningStats) Mean() (float64, error) {
	if s.count == 0 {
		return 0, ErrNoData
	}
	return s.sum / float64(s.count), nil
}

// String renders the aggregate for logs.
func (s RunningStats) String() string {
	mean, err := s.Mean()
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("n=%d avg=%.2f min=%.2f max=%.2f", s.count, mean, s.min, s.max)
}

// Tracker holds one RunningStats per sensor kind for the length of a run.
//
// Tracker is not safe for concurrent use: the pipeline coordinator owns it
// and is its only mutator.
type Tracker struct {
	stats map[types.SensorKind]RunningStats
}

// NewTracker returns a Tracker with an empty aggregate for each kind.
func NewTracker(kinds ...types.SensorKind) *Tracker {
	t := &Tracker{stats: make(map[types.SensorKind]RunningStats, len(kinds))}
	for _, k := range kinds {
		t.stats[k] = RunningStats{}
	}
	return t
}

// Observe folds r into the aggregate for r.Kind and returns the new value.
func (t *Tracker) Observe(r types.Reading) RunningStats {
	next := t.stats[r.Kind].Update(r.Value)
	t.stats[r.Kind] = next
	return next
}

// Get returns the current aggregate for kind.
func (t *Tracker) Get(kind types.SensorKind) RunningStats {
	return t.stats[kind]
}

// Snapshot returns a copy of every aggregate keyed by kind.
func (t *Tracker) Snapshot() map[types.SensorKind]RunningStats {
	out := make(map[types.SensorKind]RunningStats, len(t.stats))
	for k, s := range t.stats {
		out[k] = s
	}
	return out
}
