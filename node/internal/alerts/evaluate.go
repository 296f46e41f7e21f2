package alerts

import "github.com/obsidianstack/sensornode/pkg/types"

// Evaluate returns an AlertEvent when r.Value > threshold and nil otherwise.
// A value equal to the threshold does not alert.
func Evaluate(r types.Reading, threshold float64) *types.AlertEvent {
	if !(r.Value > threshold) {
		return nil
	}
	return &types.AlertEvent{
		Kind:      r.Kind,
		Value:     r.Value,
		Timestamp: r.Timestamp,
		Threshold: threshold,
	}
}
