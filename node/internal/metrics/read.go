package metrics

import (
	"fmt"
	"io"
	"os"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/obsidianstack/sensornode/pkg/types"
)

// SensorSnapshot is what a metrics file records about one sensor.
type SensorSnapshot struct {
	Kind     types.SensorKind
	Value    float64
	Min      float64
	Max      float64
	Mean     float64
	Readings float64
	Alerts   float64
}

// Snapshot is the parsed content of a metrics file.
type Snapshot struct {
	RunID   string
	Sensors []SensorSnapshot // enumeration order; kinds absent from the file are omitted
}

// ReadFile parses a metrics file written by an Exporter.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a Prometheus text exposition produced by an Exporter.
func Read(r io.Reader) (*Snapshot, error) {
	mfs, err := parseMetrics(r)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	if mf := mfs[MetricRunInfo]; mf != nil && len(mf.GetMetric()) > 0 {
		snap.RunID = labelValue(mf.GetMetric()[0], labelRunID)
	}
	for _, k := range types.Kinds {
		s, ok := sensorValues(mfs, k)
		if ok {
			snap.Sensors = append(snap.Sensors, s)
		}
	}
	return snap, nil
}

// parseMetrics decodes a text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("metrics: parse text: %w", err)
	}
	return mfs, nil
}

func sensorValues(mfs map[string]*dto.MetricFamily, k types.SensorKind) (SensorSnapshot, bool) {
	s := SensorSnapshot{Kind: k}
	var found bool
	pick := func(name string, dst *float64) {
		v, ok := valueFor(mfs[name], k.String())
		if ok {
			*dst = v
			found = true
		}
	}
	pick(MetricValue, &s.Value)
	pick(MetricMin, &s.Min)
	pick(MetricMax, &s.Max)
	pick(MetricMean, &s.Mean)
	pick(MetricReadings, &s.Readings)
	pick(MetricAlerts, &s.Alerts)
	return s, found
}

// valueFor returns the counter, gauge or untyped value of the series in mf
// whose sensor label equals sensor.
func valueFor(mf *dto.MetricFamily, sensor string) (float64, bool) {
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		if labelValue(m, labelSensor) != sensor {
			continue
		}
		switch {
		case m.Counter != nil:
			return m.Counter.GetValue(), true
		case m.Gauge != nil:
			return m.Gauge.GetValue(), true
		case m.Untyped != nil:
			return m.Untyped.GetValue(), true
		}
	}
	return 0, false
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
