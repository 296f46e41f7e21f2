// Package logview prints the readings log written by the file sink, either
// once or following new lines as they are appended.
package logview

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ErrNoLog is returned when the log file does not exist yet.
var ErrNoLog = errors.New("no readings logged yet")

// Print copies the last n lines of the log at path to w; n <= 0 prints all.
func Print(path string, n int, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoLog
		}
		return fmt.Errorf("logview: %w", err)
	}
	defer f.Close()

	if n <= 0 {
		_, err := io.Copy(w, f)
		return err
	}
	ring := make([]string, 0, n)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("logview: read %s: %w", path, err)
	}
	for _, line := range ring {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Follow prints the whole log at path and then every line appended to it
// until ctx is cancelled. It survives the file being rotated or created
// after Follow starts.
func Follow(ctx context.Context, path string, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("logview: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("logview: watch: %w", err)
	}
	target := filepath.Clean(path)

	t := &tail{path: path, w: w}
	defer t.close()
	if err := t.reopen(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				// rotation moved the old file away; start over on the new one
				if err := t.reopen(); err != nil {
					return err
				}
			case event.Has(fsnotify.Write):
				if err := t.copy(); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("logview: watch: %w", err)
		}
	}
}

// tail copies whatever has been appended to the open file since the last
// read.
type tail struct {
	path string
	w    io.Writer
	f    *os.File
}

func (t *tail) reopen() error {
	t.close()
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logview: %w", err)
	}
	t.f = f
	return t.copy()
}

func (t *tail) copy() error {
	if t.f == nil {
		return t.reopen()
	}
	if _, err := io.Copy(t.w, t.f); err != nil {
		return fmt.Errorf("logview: %w", err)
	}
	return nil
}

func (t *tail) close() {
	if t.f != nil {
		t.f.Close()
		t.f = nil
	}
}
