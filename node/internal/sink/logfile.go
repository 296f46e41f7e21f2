package sink

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/obsidianstack/sensornode/node/internal/pipeline"
)

const (
	// DefaultLogBuffer is the number of formatted lines held while the
	// writer goroutine catches up.
	DefaultLogBuffer = 256

	// lineTimeLayout matches the timestamp the node has always logged.
	lineTimeLayout = "2006-01-02 15:04:05"
)

// FileLogConfig configures NewFileLog.
type FileLogConfig struct {
	Path       string
	MaxSizeMB  int // rotate after this many megabytes; 0 uses the lumberjack default
	MaxBackups int // rotated files to keep; 0 keeps all
	BufferSize int
	Location   *time.Location // timestamp zone; nil means time.Local
}

// logEntry is either a line to write or a flush marker.
type logEntry struct {
	line string
	ack  chan struct{}
}

// FileLog is a pipeline.Sink appending one line per record to a file.
type FileLog struct {
	w   io.WriteCloser
	buf chan logEntry
	loc *time.Location
	log *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	dropped   atomic.Int64
	writeErrs atomic.Int64
}

// NewFileLog opens (creating if needed) the log at cfg.Path for appending
// and starts the writer goroutine. Call Close when done.
func NewFileLog(cfg FileLogConfig, log *slog.Logger) (*FileLog, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sink: log file path is required")
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}
	return newFileLog(lj, cfg, log), nil
}

func newFileLog(w io.WriteCloser, cfg FileLogConfig, log *slog.Logger) *FileLog {
	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultLogBuffer
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	f := &FileLog{
		w:    w,
		buf:  make(chan logEntry, size),
		loc:  loc,
		log:  log,
		done: make(chan struct{}),
	}
	go f.run()
	return f
}

// FormatLine renders rec as one log line without the trailing newline:
//
//	2026-01-01 12:00:03, temperature, 27.41
//	2026-01-01 12:00:04, temperature, 28.73, ALERT > 28.00
func FormatLine(rec pipeline.TickRecord, loc *time.Location) string {
	line := fmt.Sprintf("%s, %s, %.2f",
		rec.Reading.Timestamp.In(loc).Format(lineTimeLayout),
		rec.Reading.Kind,
		rec.Reading.Value,
	)
	if rec.Alert != nil {
		line += fmt.Sprintf(", ALERT > %.2f", rec.Alert.Threshold)
	}
	return line
}

// Emit queues the formatted line. It never blocks: if the buffer is full the
// oldest queued line is discarded.
func (f *FileLog) Emit(rec pipeline.TickRecord) {
	if f.closed.Load() {
		return
	}
	e := logEntry{line: FormatLine(rec, f.loc) + "\n"}
	select {
	case f.buf <- e:
		return
	default:
	}
	select {
	case old := <-f.buf:
		if old.ack != nil {
			close(old.ack)
		} else {
			f.dropped.Add(1)
			f.log.Warn("sink: log buffer full, dropped oldest line", "buffer_cap", cap(f.buf))
		}
	default:
	}
	select {
	case f.buf <- e:
	default:
		f.dropped.Add(1)
	}
}

// Flush blocks until every line queued before the call has been written.
func (f *FileLog) Flush() error {
	if f.closed.Load() {
		return nil
	}
	ack := make(chan struct{})
	select {
	case f.buf <- logEntry{ack: ack}:
	case <-f.done:
		return nil
	}
	select {
	case <-ack:
	case <-f.done:
	}
	if n := f.writeErrs.Load(); n > 0 {
		return fmt.Errorf("sink: %d log writes failed", n)
	}
	return nil
}

// Dropped returns how many lines were discarded because the buffer was full.
func (f *FileLog) Dropped() int64 { return f.dropped.Load() }

// Close drains the buffer, stops the writer and closes the file.
func (f *FileLog) Close() error {
	var err error
	f.closeOnce.Do(func() {
		f.closed.Store(true)
		close(f.buf)
		<-f.done
		err = f.w.Close()
	})
	return err
}

func (f *FileLog) run() {
	defer close(f.done)
	for e := range f.buf {
		if e.ack != nil {
			close(e.ack)
			continue
		}
		if _, err := io.WriteString(f.w, e.line); err != nil {
			f.writeErrs.Add(1)
			f.log.Error("sink: log write failed", "err", err)
		}
	}
}
