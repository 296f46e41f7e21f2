package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/obsidianstack/sensornode/node/internal/pipeline"
	"github.com/obsidianstack/sensornode/pkg/types"
)

// DefaultGraphHistory is how many temperature readings the graph shows.
const DefaultGraphHistory = 10

// ConsoleConfig configures NewConsole.
type ConsoleConfig struct {
	Graph        bool
	GraphHistory int
	Kinds        []types.SensorKind // kinds listed in the summary; nil means types.Kinds
}

// Console is a pipeline.Sink rendering records as text for a terminal.
// Write errors are ignored.
type Console struct {
	w       io.Writer
	graph   bool
	history int
	kinds   []types.SensorKind
	board   *Board

	recent []float64
	alerts int
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer, cfg ConsoleConfig) *Console {
	history := cfg.GraphHistory
	if history <= 0 {
		history = DefaultGraphHistory
	}
	kinds := cfg.Kinds
	if kinds == nil {
		kinds = types.Kinds
	}
	return &Console{
		w:       w,
		graph:   cfg.Graph,
		history: history,
		kinds:   kinds,
		board:   NewBoard(),
	}
}

// Emit prints the display, alert and statistics lines for rec.
func (c *Console) Emit(rec pipeline.TickRecord) {
	r := rec.Reading
	c.board.Put(rec)

	fmt.Fprintf(c.w, "[LCD Display]: %s: %.2f%s\n", r.Kind.Label(), r.Value, r.Kind.Unit())
	if rec.Alert != nil {
		c.alerts++
		fmt.Fprintf(c.w, "[ALERT]: %s exceeded threshold: %.2f%s (threshold %.2f%s)\n",
			r.Kind.Label(), r.Value, r.Kind.Unit(), rec.Alert.Threshold, r.Kind.Unit())
	}
	fmt.Fprintf(c.w, "[Statistics] %s %s\n", r.Kind.Label(), statsLine(rec, r.Kind))

	if c.graph && r.Kind == types.Temperature {
		c.recent = append(c.recent, r.Value)
		if len(c.recent) > c.history {
			c.recent = c.recent[len(c.recent)-c.history:]
		}
		c.drawGraph()
	}
}

// Flush prints the end-of-run summary.
func (c *Console) Flush() error {
	fmt.Fprintln(c.w, "[Summary]")
	for _, k := range c.kinds {
		rec, ok := c.board.Get(k)
		if !ok {
			fmt.Fprintf(c.w, "  %s: no data yet\n", k.Label())
			continue
		}
		fmt.Fprintf(c.w, "  %s: %d readings, last %.2f%s, %s\n",
			k.Label(), rec.Stats.Count(), rec.Reading.Value, k.Unit(), statsLine(rec, k))
	}
	fmt.Fprintf(c.w, "  Alerts: %d\n", c.alerts)
	return nil
}

func statsLine(rec pipeline.TickRecord, k types.SensorKind) string {
	mean, err := rec.Stats.Mean()
	if err != nil {
		return err.Error()
	}
	lo, _ := rec.Stats.Min()
	hi, _ := rec.Stats.Max()
	u := k.Unit()
	return fmt.Sprintf("Average: %.2f%s, Min: %.2f%s, Max: %.2f%s", mean, u, lo, u, hi, u)
}

// Bar returns the graph bar for v: one '=' per two whole units, none for
// negative values.
func Bar(v float64) string {
	if v <= 0 {
		return ""
	}
	return strings.Repeat("=", int(v)/2)
}

func (c *Console) drawGraph() {
	fmt.Fprintln(c.w, "[Real-Time Graph] Temperature")
	for _, v := range c.recent {
		fmt.Fprintf(c.w, "%6.2f | %s\n", v, Bar(v))
	}
}
