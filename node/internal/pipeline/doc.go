// Package pipeline ties the sensor model, scheduler, statistics tracker and
// alert monitor together into one run.
//
// Settings is the resolved, read-only input to a run. Coordinator.Run walks
// the schedule on a single goroutine: for each due tick it samples the
// sensor, folds the reading into that kind's RunningStats, evaluates the
// alert threshold and emits one TickRecord to every Sink. Sinks are
// fire-and-forget; nothing they do feeds back into the run.
//
// Cancellation is observed only between ticks, so a record is either emitted
// whole or not at all. Sinks are flushed before Run returns.
package pipeline
