package pipeline

import (
	"time"

	"github.com/obsidianstack/sensornode/node/internal/stats"
	"github.com/obsidianstack/sensornode/pkg/types"
)

// TickRecord is the unit a run emits per tick: the reading, the statistics
// of its kind including that reading, and the alert it raised, if any.
type TickRecord struct {
	RunID   string
	Seq     int           // 0-based position in the run's emission order
	Offset  time.Duration // scheduled time since run start
	Reading types.Reading
	Stats   stats.RunningStats
	Alert   *types.AlertEvent
}

// Sink consumes TickRecords. Emit must not block the run for long; Flush is
// called once at the end of a run, including a cancelled one.
type Sink interface {
	Emit(rec TickRecord)
	Flush() error
}

// SinkFunc adapts a plain function to Sink. Flush is a no-op.
type SinkFunc func(TickRecord)

// Emit calls f(rec).
func (f SinkFunc) Emit(rec TickRecord) { f(rec) }

// Flush does nothing.
func (SinkFunc) Flush() error { return nil }
