// Package stats keeps full-history running statistics per sensor kind.
//
// RunningStats is a value: Update returns the next value and never mutates
// the receiver, so a snapshot handed to a sink cannot change underneath it.
// Minimum and maximum are absent until the first observation; Mean reports
// ErrNoData instead of dividing by zero. There is no windowing or decay.
package stats
