package types

import (
	"fmt"
	"strings"
	"time"
)

// SensorKind identifies one sensor channel on the node.
type SensorKind int

// The declaration order is the tie-break order used when several kinds are
// due at the same instant.
const (
	Temperature SensorKind = iota
	Humidity
	Light
)

// Kinds lists every sensor kind in enumeration order.
var Kinds = []SensorKind{Temperature, Humidity, Light}

// String returns the lower-case channel name used in config keys and logs.
func (k SensorKind) String() string {
	switch k {
	case Temperature:
		return "temperature"
	case Humidity:
		return "humidity"
	case Light:
		return "light"
	default:
		return fmt.Sprintf("sensor(%d)", int(k))
	}
}

// Label returns the capitalised channel name used on the display.
func (k SensorKind) Label() string {
	switch k {
	case Temperature:
		return "Temperature"
	case Humidity:
		return "Humidity"
	case Light:
		return "Light intensity"
	default:
		return k.String()
	}
}

// Unit returns the display unit suffix for values of this kind.
func (k SensorKind) Unit() string {
	if k == Temperature {
		return "°C"
	}
	return "%"
}

// Valid reports whether k is one of the known kinds.
func (k SensorKind) Valid() bool {
	return k >= Temperature && k <= Light
}

// ParseKind maps a channel name (case-insensitive) to its SensorKind.
func ParseKind(s string) (SensorKind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown sensor kind %q", s)
}

// Reading is one sample produced by the sensor model. Readings are values;
// nothing mutates them after creation.
type Reading struct {
	Kind      SensorKind
	Value     float64
	Timestamp time.Time
}

// AlertEvent records a reading whose value strictly exceeded the configured
// threshold for its kind.
type AlertEvent struct {
	Kind      SensorKind
	Value     float64
	Timestamp time.Time
	Threshold float64
}
