package metrics

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/obsidianstack/sensornode/node/internal/pipeline"
)

// Metric names written by the Exporter.
const (
	MetricValue    = "sensornode_reading_value"
	MetricMin      = "sensornode_reading_min"
	MetricMax      = "sensornode_reading_max"
	MetricMean     = "sensornode_reading_mean"
	MetricReadings = "sensornode_readings_total"
	MetricAlerts   = "sensornode_alerts_total"
	MetricRunInfo  = "sensornode_run_info"

	labelSensor = "sensor"
	labelRunID  = "run_id"
)

// Exporter is a pipeline.Sink that keeps per-sensor gauges and counters in
// a private registry and writes them to a file every flushEvery records and
// on Flush. Not safe for concurrent use.
type Exporter struct {
	path       string
	flushEvery int
	pending    int
	log        *slog.Logger

	reg      *prometheus.Registry
	value    *prometheus.GaugeVec
	min      *prometheus.GaugeVec
	max      *prometheus.GaugeVec
	mean     *prometheus.GaugeVec
	readings *prometheus.CounterVec
	alerts   *prometheus.CounterVec
	runInfo  *prometheus.GaugeVec
}

// NewExporter returns an Exporter writing to path. flushEvery <= 0 writes
// only on Flush.
func NewExporter(path string, flushEvery int, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	e := &Exporter{
		path:       path,
		flushEvery: flushEvery,
		log:        log,
		reg:        prometheus.NewRegistry(),
		value: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricValue,
			Help: "Most recent reading per sensor.",
		}, []string{labelSensor}),
		min: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricMin,
			Help: "Smallest reading seen this run per sensor.",
		}, []string{labelSensor}),
		max: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricMax,
			Help: "Largest reading seen this run per sensor.",
		}, []string{labelSensor}),
		mean: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricMean,
			Help: "Mean of the readings seen this run per sensor.",
		}, []string{labelSensor}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricReadings,
			Help: "Readings taken this run per sensor.",
		}, []string{labelSensor}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricAlerts,
			Help: "Threshold alerts raised this run per sensor.",
		}, []string{labelSensor}),
		runInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricRunInfo,
			Help: "Always 1; labelled with the current run ID.",
		}, []string{labelRunID}),
	}
	e.reg.MustRegister(e.value, e.min, e.max, e.mean, e.readings, e.alerts, e.runInfo)
	return e
}

// Emit updates the series for rec's sensor.
func (e *Exporter) Emit(rec pipeline.TickRecord) {
	sensor := rec.Reading.Kind.String()
	e.runInfo.WithLabelValues(rec.RunID).Set(1)
	e.value.WithLabelValues(sensor).Set(rec.Reading.Value)
	if v, ok := rec.Stats.Min(); ok {
		e.min.WithLabelValues(sensor).Set(v)
	}
	if v, ok := rec.Stats.Max(); ok {
		e.max.WithLabelValues(sensor).Set(v)
	}
	if v, err := rec.Stats.Mean(); err == nil {
		e.mean.WithLabelValues(sensor).Set(v)
	}
	e.readings.WithLabelValues(sensor).Inc()
	if rec.Alert != nil {
		e.alerts.WithLabelValues(sensor).Inc()
	}

	e.pending++
	if e.flushEvery > 0 && e.pending >= e.flushEvery {
		if err := e.write(); err != nil {
			e.log.Warn("metrics: write failed", "path", e.path, "err", err)
		}
	}
}

// Flush writes the current values to the file.
func (e *Exporter) Flush() error {
	return e.write()
}

// write replaces the file atomically so readers never see a partial exposition.
func (e *Exporter) write() error {
	e.pending = 0
	mfs, err := e.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), filepath.Base(e.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
