package eventlog

import (
	"fmt"

	"github.com/guidoenr/bassync/internal/analyzer"
)

// Format renders one record as a log line without the trailing newline.
func Format(ev analyzer.Event) string {
	switch ev.Kind {
	case analyzer.EventPeak:
		return fmt.Sprintf("[%.2f] PEAK detected - Energy: %.3f (increase: +%.1f%%)", ev.Time, ev.Energy, ev.Increase*100)
	case analyzer.EventEnd:
		return fmt.Sprintf("[%.2f] Bass END - Level: %s (Energy: %.3f) - Duration: %.2fs", ev.Time, ev.Level, ev.Energy, ev.Duration)
	default:
		return fmt.Sprintf("[%.2f] Bass %s - Level: %s (Energy: %.3f)", ev.Time, ev.Kind, ev.Level, ev.Energy)
	}
}
