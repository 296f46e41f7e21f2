package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// Duration is a time.Duration that accepts Go syntax ("30s", "1m30s"),
// ISO 8601 ("PT30S") or a bare number of seconds in config files.
type Duration time.Duration

// ParseDuration parses s in any of the forms Duration accepts.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	iso, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return iso.ToTimeDuration(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the Go duration syntax.
func (d Duration) String() string { return time.Duration(d).String() }
