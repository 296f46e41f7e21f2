package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/obsidianstack/sensornode/pkg/types"
)

// ErrInvalidInterval is returned by New for a missing or non-positive interval.
var ErrInvalidInterval = errors.New("sampling interval must be positive")

// Tick is one scheduled sampling instant for one sensor kind.
type Tick struct {
	Kind   types.SensorKind
	Seq    int64         // n for the n-th tick of Kind, starting at 0
	Offset time.Duration // Seq * interval, measured from run start
}

// Scheduler yields ticks in due order. It is a pure sequence generator and
// never blocks; see Wait for the suspension between ticks.
type Scheduler struct {
	kinds     []types.SensorKind
	intervals map[types.SensorKind]time.Duration
	seq       map[types.SensorKind]int64
	duration  time.Duration
	unbounded bool
}

// New builds a Scheduler for the given intervals. duration bounds the run
// (ticks with Offset <= duration are produced) unless unbounded is set.
func New(intervals map[types.SensorKind]time.Duration, duration time.Duration, unbounded bool) (*Scheduler, error) {
	if len(intervals) == 0 {
		return nil, fmt.Errorf("schedule: no sensors configured")
	}
	if !unbounded && duration < 0 {
		return nil, fmt.Errorf("schedule: run duration %v must not be negative", duration)
	}
	s := &Scheduler{
		intervals: make(map[types.SensorKind]time.Duration, len(intervals)),
		seq:       make(map[types.SensorKind]int64, len(intervals)),
		duration:  duration,
		unbounded: unbounded,
	}
	for k, iv := range intervals {
		if iv <= 0 {
			return nil, fmt.Errorf("schedule: %s: %w (got %v)", k, ErrInvalidInterval, iv)
		}
		s.intervals[k] = iv
		s.kinds = append(s.kinds, k)
	}
	sort.Slice(s.kinds, func(i, j int) bool { return s.kinds[i] < s.kinds[j] })
	return s, nil
}

// Next returns the next due tick. The second result is false once the run
// duration has been passed; an unbounded Scheduler never reports false.
func (s *Scheduler) Next() (Tick, bool) {
	var (
		best  Tick
		found bool
	)
	for _, k := range s.kinds {
		off := time.Duration(s.seq[k]) * s.intervals[k]
		if !found || off < best.Offset {
			best = Tick{Kind: k, Seq: s.seq[k], Offset: off}
			found = true
		}
	}
	if !s.unbounded && best.Offset > s.duration {
		return Tick{}, false
	}
	s.seq[best.Kind]++
	return best, true
}

// Wait suspends until start+t.Offset on clock, or until ctx is done. It
// returns ctx.Err() when cancelled, including when the tick is already due
// but ctx was cancelled in the meantime.
func Wait(ctx context.Context, clock Clock, start time.Time, t Tick) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := start.Add(t.Offset).Sub(clock.Now())
	if d <= 0 {
		return nil
	}
	return clock.Sleep(ctx, d)
}
