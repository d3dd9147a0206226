package timeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/guidoenr/bassync/internal/analyzer"
)

var (
	// ErrInvalidEvent reports an event with a bad interval, level or duration.
	ErrInvalidEvent = errors.New("timeline: invalid event")
	// ErrUnordered reports events that are not sorted by start or that overlap.
	ErrUnordered = errors.New("timeline: events must be ordered and non-overlapping")
)

// durationTolerance absorbs the two-decimal rounding of authored durations.
const durationTolerance = 0.011

// BassEvent is one contiguous interval of elevated bass in a track.
type BassEvent struct {
	Start    float64        `json:"start"`
	End      float64        `json:"end"`
	Duration float64        `json:"duration"`
	Level    analyzer.Level `json:"level"`
	Energy   float64        `json:"energy"`
}

// Contains reports whether t lies in [Start, End].
func (e BassEvent) Contains(t float64) bool {
	return e.Start <= t && t <= e.End
}

// Timeline is an immutable, time-ordered set of bass events for one track.
// It is safe for concurrent use.
type Timeline struct {
	track    string
	duration float64
	events   []BassEvent
}

// New validates and copies events. A zero Duration on an event is filled in
// from its bounds.
func New(track string, duration float64, events []BassEvent) (*Timeline, error) {
	out := make([]BassEvent, len(events))
	copy(out, events)

	for i := range out {
		ev := &out[i]
		if ev.End < ev.Start || ev.Start < 0 || math.IsNaN(ev.Start) || math.IsNaN(ev.End) {
			return nil, fmt.Errorf("%w: #%d has bounds [%.2f, %.2f]", ErrInvalidEvent, i, ev.Start, ev.End)
		}
		if ev.Level <= analyzer.LevelNone || ev.Level > analyzer.LevelHigh {
			return nil, fmt.Errorf("%w: #%d has level %s", ErrInvalidEvent, i, ev.Level)
		}
		if ev.Duration == 0 {
			ev.Duration = ev.End - ev.Start
		} else if math.Abs(ev.Duration-(ev.End-ev.Start)) > durationTolerance {
			return nil, fmt.Errorf("%w: #%d duration %.2f does not match [%.2f, %.2f]", ErrInvalidEvent, i, ev.Duration, ev.Start, ev.End)
		}
		if duration > 0 && ev.End > duration {
			return nil, fmt.Errorf("%w: #%d ends at %.2f after track end %.2f", ErrInvalidEvent, i, ev.End, duration)
		}
		if i > 0 && ev.Start < out[i-1].End {
			return nil, fmt.Errorf("%w: #%d starts at %.2f before #%d ends at %.2f", ErrUnordered, i, ev.Start, i-1, out[i-1].End)
		}
	}

	return &Timeline{track: track, duration: duration, events: out}, nil
}

// Track returns the track name.
func (t *Timeline) Track() string { return t.track }

// Duration returns the total track length in seconds.
func (t *Timeline) Duration() float64 { return t.duration }

// Len returns the number of events.
func (t *Timeline) Len() int { return len(t.events) }

// Events returns a copy of the events.
func (t *Timeline) Events() []BassEvent {
	out := make([]BassEvent, len(t.events))
	copy(out, t.events)
	return out
}

// LevelAt returns the level of the first event containing time, or LevelNone.
func (t *Timeline) LevelAt(time float64) analyzer.Level {
	for _, ev := range t.events {
		if ev.Contains(time) {
			return ev.Level
		}
	}
	return analyzer.LevelNone
}

// LevelWithAnticipation is LevelAt with each event opened leadTime seconds
// early: it matches when time is in [Start-leadTime, End] or time+leadTime is
// in [Start, End].
func (t *Timeline) LevelWithAnticipation(time, leadTime float64) analyzer.Level {
	for _, ev := range t.events {
		if time >= ev.Start-leadTime && time <= ev.End {
			return ev.Level
		}
		if ev.Contains(time + leadTime) {
			return ev.Level
		}
	}
	return analyzer.LevelNone
}

// CurrentEvent returns the event containing time.
func (t *Timeline) CurrentEvent(time float64) (BassEvent, bool) {
	for _, ev := range t.events {
		if ev.Contains(time) {
			return ev, true
		}
	}
	return BassEvent{}, false
}
