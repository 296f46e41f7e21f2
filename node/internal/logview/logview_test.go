package logview

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

const sample = "2026-01-01 12:00:00, temperature, 25.00\n" +
	"2026-01-01 12:00:01, temperature, 26.00\n" +
	"2026-01-01 12:00:02, humidity, 61.00, ALERT > 60.00\n"

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sensor.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPrint_All(t *testing.T) {
	path := writeLog(t, sample)
	var buf bytes.Buffer
	if err := Print(path, 0, &buf); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if buf.String() != sample {
		t.Errorf("Print output:\n%s\nwant:\n%s", buf.String(), sample)
	}
}

func TestPrint_LastN(t *testing.T) {
	path := writeLog(t, sample)
	var buf bytes.Buffer
	if err := Print(path, 2, &buf); err != nil {
		t.Fatalf("Print: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "26.00") || !strings.Contains(lines[1], "ALERT") {
		t.Errorf("last 2 lines = %q", lines)
	}
}

func TestPrint_Missing(t *testing.T) {
	err := Print(filepath.Join(t.TempDir(), "none.log"), 0, &bytes.Buffer{})
	if !errors.Is(err, ErrNoLog) {
		t.Errorf("err = %v, want ErrNoLog", err)
	}
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("output never contained %q:\n%s", want, buf.String())
}

func TestFollow_StreamsAppends(t *testing.T) {
	path := writeLog(t, sample)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, &out) }()

	waitFor(t, &out, "ALERT > 60.00")

	// Append until the watcher picks it up; it may not be registered yet.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "light, 42.00") {
		if time.Now().After(deadline) {
			t.Fatalf("appended line never followed:\n%s", out.String())
		}
		if _, err := f.WriteString("2026-01-01 12:00:03, light, 42.00\n"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Follow returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not stop after cancel")
	}
}

func TestFollow_FileCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor.log")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	go Follow(ctx, path, &out) //nolint:errcheck

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "temperature, 21.00") {
		if time.Now().After(deadline) {
			t.Fatalf("created file never followed:\n%s", out.String())
		}
		if err := os.WriteFile(path, []byte("2026-01-01 12:00:00, temperature, 21.00\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
