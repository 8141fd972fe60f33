package composite

import "github.com/himanishpuri/ImpactSync/pkg/models"

// GainPolicy assigns one gain in [0,1] to each event, in event order.
type GainPolicy interface {
	Name() string
	Gains(events []models.CollisionEvent) []float64
}

// VelocityGain scales each event by its velocity magnitude relative to the
// fastest event in the set. Events without an estimate play at full gain,
// and so does every event when no estimate is non-zero.
type VelocityGain struct{}

func (VelocityGain) Name() string { return "velocity" }

func (VelocityGain) Gains(events []models.CollisionEvent) []float64 {
	gains := make([]float64, len(events))
	var peak float64
	for _, e := range events {
		if e.HasVelocity {
			peak = max(peak, e.Velocity.Magnitude())
		}
	}

	for i, e := range events {
		if !e.HasVelocity || peak == 0 {
			gains[i] = 1
			continue
		}
		gains[i] = e.Velocity.Magnitude() / peak
	}
	return gains
}

// LegacyTable is the fixed per-hit loudness sequence used before velocity
// estimates existed.
var LegacyTable = []float64{14, 10, 7, 16, 9, 11, 18, 14, 7, 50, 60, 94, 94}

// TableGain cycles through a fixed table, normalized by its largest entry.
// Event i takes entry i mod len(Table).
type TableGain struct {
	Table []float64 // LegacyTable when nil
}

func (TableGain) Name() string { return "table" }

func (t TableGain) Gains(events []models.CollisionEvent) []float64 {
	table := t.Table
	if len(table) == 0 {
		table = LegacyTable
	}
	var top float64
	for _, v := range table {
		top = max(top, v)
	}

	gains := make([]float64, len(events))
	for i := range events {
		if top <= 0 {
			gains[i] = 1
			continue
		}
		gains[i] = clamp01(table[i%len(table)] / top)
	}
	return gains
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// GainPolicyByName returns the policy registered under name.
func GainPolicyByName(name string) (GainPolicy, bool) {
	switch name {
	case "", "velocity":
		return VelocityGain{}, true
	case "table":
		return TableGain{}, true
	default:
		return nil, false
	}
}
