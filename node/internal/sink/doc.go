// Package sink holds the record consumers that sit outside the pipeline
// core: the append-only log file and the console display.
//
// FileLog formats one line per record and hands it to a background writer
// through a bounded buffer. When the buffer is full the oldest line is
// dropped so the run never waits on disk I/O. Lines go through a
// lumberjack.Logger, which appends to the file and rotates it by size.
//
// Console renders the LCD-style lines, alert lines, per-kind statistics and
// an optional bar graph of recent temperature readings. Board keeps the
// latest record per kind for the end-of-run summary.
package sink
