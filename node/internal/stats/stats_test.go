package stats

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/obsidianstack/sensornode/pkg/types"
)

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func fold(values []float64) RunningStats {
	var s RunningStats
	for _, v := range values {
		s = s.Update(v)
	}
	return s
}

func TestRunningStats_Empty(t *testing.T) {
	var s RunningStats
	if !s.Empty() || s.Count() != 0 {
		t.Fatalf("zero value should be empty, got count %d", s.Count())
	}
	if _, ok := s.Min(); ok {
		t.Error("Min on empty stats should be absent")
	}
	if _, ok := s.Max(); ok {
		t.Error("Max on empty stats should be absent")
	}
	if _, err := s.Mean(); !errors.Is(err, ErrNoData) {
		t.Errorf("Mean on empty stats err = %v, want ErrNoData", err)
	}
	if s.String() != "no data yet" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestRunningStats_MatchesDirectComputation(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"single", []float64{21.5}},
		{"ascending", []float64{20, 21, 22, 23, 24}},
		{"descending", []float64{30, 25, 20}},
		{"negative", []float64{-5, 3.25, -12.5, 0}},
		{"repeated", []float64{28, 28, 28}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := fold(tc.values)

			wantMin, wantMax, sum := math.Inf(1), math.Inf(-1), 0.0
			for _, v := range tc.values {
				wantMin = math.Min(wantMin, v)
				wantMax = math.Max(wantMax, v)
				sum += v
			}
			if s.Count() != uint64(len(tc.values)) {
				t.Errorf("Count = %d, want %d", s.Count(), len(tc.values))
			}
			if got, _ := s.Min(); got != wantMin {
				t.Errorf("Min = %v, want %v", got, wantMin)
			}
			if got, _ := s.Max(); got != wantMax {
				t.Errorf("Max = %v, want %v", got, wantMax)
			}
			mean, err := s.Mean()
			if err != nil {
				t.Fatalf("Mean: %v", err)
			}
			if !almostEqual(mean, sum/float64(len(tc.values)), 1e-9) {
				t.Errorf("Mean = %v, want %v", mean, sum/float64(len(tc.values)))
			}
		})
	}
}

func TestRunningStats_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.IntN(500)
		values := make([]float64, n)
		for i := range values {
			values[i] = 18 + rng.Float64()*17
		}
		s := fold(values)

		lo, hi, sum := values[0], values[0], 0.0
		for _, v := range values {
			lo, hi, sum = math.Min(lo, v), math.Max(hi, v), sum+v
		}
		gotMin, _ := s.Min()
		gotMax, _ := s.Max()
		mean, _ := s.Mean()
		if gotMin != lo || gotMax != hi || s.Count() != uint64(n) || !almostEqual(mean, sum/float64(n), 1e-9) {
			t.Fatalf("trial %d: got %s, want n=%d min=%v max=%v mean=%v", trial, s, n, lo, hi, sum/float64(n))
		}
		for _, v := range values {
			if v < gotMin || v > gotMax {
				t.Fatalf("trial %d: value %v outside [%v, %v]", trial, v, gotMin, gotMax)
			}
		}
	}
}

func TestRunningStats_UpdateDoesNotMutateReceiver(t *testing.T) {
	a := fold([]float64{1, 2, 3})
	b := a.Update(100)
	if a.Count() != 3 {
		t.Errorf("receiver count changed to %d", a.Count())
	}
	if got, _ := a.Max(); got != 3 {
		t.Errorf("receiver max changed to %v", got)
	}
	if got, _ := b.Max(); got != 100 {
		t.Errorf("updated max = %v, want 100", got)
	}
}

func TestRunningStats_MergeOrderIndependent(t *testing.T) {
	first := []float64{22.1, 19.4, 30.2}
	second := []float64{25.0, 18.7}

	ab := fold(first).Merge(fold(second))
	ba := fold(second).Merge(fold(first))
	all := fold(append(append([]float64{}, first...), second...))

	for name, got := range map[string]RunningStats{"a+b": ab, "b+a": ba} {
		if got.Count() != all.Count() {
			t.Errorf("%s Count = %d, want %d", name, got.Count(), all.Count())
		}
		if !almostEqual(got.Sum(), all.Sum(), 1e-9) {
			t.Errorf("%s Sum = %v, want %v", name, got.Sum(), all.Sum())
		}
		gMin, _ := got.Min()
		wMin, _ := all.Min()
		gMax, _ := got.Max()
		wMax, _ := all.Max()
		if gMin != wMin || gMax != wMax {
			t.Errorf("%s min/max = %v/%v, want %v/%v", name, gMin, gMax, wMin, wMax)
		}
	}
}

func TestRunningStats_MergeWithEmpty(t *testing.T) {
	s := fold([]float64{4, 8})
	if got := s.Merge(RunningStats{}); got != s {
		t.Errorf("s.Merge(empty) = %v, want %v", got, s)
	}
	if got := (RunningStats{}).Merge(s); got != s {
		t.Errorf("empty.Merge(s) = %v, want %v", got, s)
	}
}

func TestTracker_PerKindIsolation(t *testing.T) {
	tr := NewTracker(types.Kinds...)
	now := time.Now()

	tr.Observe(types.Reading{Kind: types.Temperature, Value: 25, Timestamp: now})
	tr.Observe(types.Reading{Kind: types.Temperature, Value: 27, Timestamp: now})
	got := tr.Observe(types.Reading{Kind: types.Humidity, Value: 55, Timestamp: now})

	if got.Count() != 1 {
		t.Errorf("humidity count = %d, want 1", got.Count())
	}
	if c := tr.Get(types.Temperature).Count(); c != 2 {
		t.Errorf("temperature count = %d, want 2", c)
	}
	if !tr.Get(types.Light).Empty() {
		t.Error("light should have no data")
	}

	snap := tr.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot len = %d, want 3", len(snap))
	}
	tr.Observe(types.Reading{Kind: types.Light, Value: 10, Timestamp: now})
	if !snap[types.Light].Empty() {
		t.Error("Snapshot should not change after later observations")
	}
}
