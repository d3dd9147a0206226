package config

import "math"

// Field names one adjustable BassConfig value.
type Field int

const (
	FieldLow Field = iota
	FieldMedium
	FieldHigh
	FieldPeakThreshold
)

func (f Field) String() string {
	switch f {
	case FieldLow:
		return "threshold_low"
	case FieldMedium:
		return "threshold_medium"
	case FieldHigh:
		return "threshold_high"
	case FieldPeakThreshold:
		return "peak_threshold"
	default:
		return "unknown"
	}
}

// Nudge adds delta to field, clamps at zero and rounds to the file precision
// so a saved config reloads to exactly the live values.
func (c *BassConfig) Nudge(field Field, delta float64) float64 {
	var target *float64
	switch field {
	case FieldLow:
		target = &c.ThresholdLow
	case FieldMedium:
		target = &c.ThresholdMedium
	case FieldHigh:
		target = &c.ThresholdHigh
	case FieldPeakThreshold:
		target = &c.PeakThreshold
	default:
		return 0
	}
	*target = math.Max(0, round3(*target+delta))
	return *target
}

// TogglePeak flips peak detection and returns the new state.
func (c *BassConfig) TogglePeak() bool {
	c.PeakEnabled = !c.PeakEnabled
	return c.PeakEnabled
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
