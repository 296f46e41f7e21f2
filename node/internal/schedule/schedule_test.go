package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/obsidianstack/sensornode/pkg/types"
)

type due struct {
	At   time.Duration
	Kind types.SensorKind
}

// drain collects up to limit ticks from s.
func drain(t *testing.T, s *Scheduler, limit int) []due {
	t.Helper()
	var out []due
	for i := 0; i < limit; i++ {
		tk, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, due{At: tk.Offset, Kind: tk.Kind})
	}
	return out
}

func TestNext_MixedIntervalsOrdering(t *testing.T) {
	s, err := New(map[types.SensorKind]time.Duration{
		types.Light:       3 * time.Second,
		types.Temperature: 1 * time.Second,
		types.Humidity:    2 * time.Second,
	}, 6*time.Second, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	T, H, L := types.Temperature, types.Humidity, types.Light
	sec := time.Second
	want := []due{
		{0, T}, {0, H}, {0, L},
		{1 * sec, T},
		{2 * sec, T}, {2 * sec, H},
		{3 * sec, T}, {3 * sec, L},
		{4 * sec, T}, {4 * sec, H},
		{5 * sec, T},
		{6 * sec, T}, {6 * sec, H}, {6 * sec, L},
	}

	got := drain(t, s, 100)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tick sequence mismatch (-want +got):\n%s", diff)
	}
	if len(got) != 14 {
		t.Errorf("tick count = %d, want 14", len(got))
	}

	// Exhausted schedulers stay exhausted.
	if _, ok := s.Next(); ok {
		t.Error("Next after end of run should report false")
	}
}

func TestNext_ZeroDurationYieldsOnlyInitialTicks(t *testing.T) {
	s, err := New(map[types.SensorKind]time.Duration{
		types.Temperature: time.Second,
		types.Humidity:    time.Second,
	}, 0, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := drain(t, s, 10)
	want := []due{{0, types.Temperature}, {0, types.Humidity}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestNext_Unbounded(t *testing.T) {
	s, err := New(map[types.SensorKind]time.Duration{types.Light: 500 * time.Millisecond}, 0, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := drain(t, s, 1000)
	if len(got) != 1000 {
		t.Fatalf("unbounded scheduler stopped after %d ticks", len(got))
	}
	if last := got[len(got)-1].At; last != 999*500*time.Millisecond {
		t.Errorf("last offset = %v", last)
	}
}

func TestNext_NonDecreasingOffsets(t *testing.T) {
	s, err := New(map[types.SensorKind]time.Duration{
		types.Temperature: 700 * time.Millisecond,
		types.Humidity:    1100 * time.Millisecond,
		types.Light:       1300 * time.Millisecond,
	}, time.Minute, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := drain(t, s, 10000)
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if cur.At < prev.At {
			t.Fatalf("tick %d at %v precedes tick %d at %v", i, cur.At, i-1, prev.At)
		}
		if cur.At == prev.At && cur.Kind <= prev.Kind {
			t.Fatalf("simultaneous ticks out of kind order at %v: %v then %v", cur.At, prev.Kind, cur.Kind)
		}
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		intervals map[types.SensorKind]time.Duration
		duration  time.Duration
	}{
		{"empty", map[types.SensorKind]time.Duration{}, time.Second},
		{"zero interval", map[types.SensorKind]time.Duration{types.Light: 0}, time.Second},
		{"negative interval", map[types.SensorKind]time.Duration{types.Light: -time.Second}, time.Second},
		{"negative duration", map[types.SensorKind]time.Duration{types.Light: time.Second}, -time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.intervals, tc.duration, false); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}

	_, err := New(map[types.SensorKind]time.Duration{types.Light: 0}, time.Second, false)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("zero interval error %v should wrap ErrInvalidInterval", err)
	}
}

func TestWait_FakeClockAdvancesToDueTime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewFakeClock(start)

	if err := Wait(context.Background(), clk, start, Tick{Offset: 3 * time.Second}); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := clk.Now(); !got.Equal(start.Add(3 * time.Second)) {
		t.Errorf("clock after Wait = %v, want start+3s", got)
	}

	// A tick that is already due does not move the clock.
	if err := Wait(context.Background(), clk, start, Tick{Offset: time.Second}); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := clk.Now(); !got.Equal(start.Add(3 * time.Second)) {
		t.Errorf("clock moved for an overdue tick: %v", got)
	}
}

func TestWait_Cancelled(t *testing.T) {
	start := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, RealClock{}, start, Tick{Offset: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait on cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestRealClock_SleepWakesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	begin := time.Now()
	err := RealClock{}.Sleep(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep = %v, want context.Canceled", err)
	}
	if time.Since(begin) > 5*time.Second {
		t.Errorf("Sleep did not wake promptly on cancel")
	}
}
