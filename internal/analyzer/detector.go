package analyzer

import "github.com/guidoenr/bassync/internal/config"

const (
	// PeakDebounce is the minimum time in seconds between two peaks.
	PeakDebounce = 0.5
	// minPeakBaseline is the previous energy below which no relative increase is computed.
	minPeakBaseline = 0.01
)

// State is the detector's view of the signal, safe to copy out for display.
type State struct {
	Level          Level             `json:"level"`
	PreviousLevel  Level             `json:"previousLevel"`
	Energy         float64           `json:"energy"`
	PreviousEnergy float64           `json:"previousEnergy"`
	LastStart      float64           `json:"lastStart"`
	LastEnd        float64           `json:"lastEnd"`
	LastPeak       float64           `json:"lastPeak"`
	PeakEnergy     float64           `json:"peakEnergy"`
	EventCount     int               `json:"eventCount"`
	PeakCount      int               `json:"peakCount"`
	Config         config.BassConfig `json:"config"`
}

// Detector classifies energies and emits start/change/end and peak records.
// Times passed to Step must not decrease.
type Detector struct {
	state  State
	peaked bool
}

// NewDetector starts in LevelNone with no peak history.
func NewDetector(cfg config.BassConfig) *Detector {
	return &Detector{state: State{Config: cfg}}
}

// Step consumes the energy measured at time now and returns the records it
// produced: at most one transition followed by at most one peak.
func (d *Detector) Step(energy, now float64) []Event {
	s := &d.state
	var events []Event

	s.PreviousLevel = s.Level
	s.PreviousEnergy = s.Energy
	s.Energy = energy
	s.Level = Classify(energy, s.Config)

	if ev, ok := d.transition(now); ok {
		events = append(events, ev)
	}
	if ev, ok := d.peak(now); ok {
		events = append(events, ev)
	}
	return events
}

func (d *Detector) transition(now float64) (Event, bool) {
	s := &d.state
	prev, cur := s.PreviousLevel, s.Level
	if prev == cur {
		return Event{}, false
	}

	ev := Event{
		Time:          now,
		Level:         cur,
		PreviousLevel: prev,
		Energy:        s.Energy,
	}
	switch {
	case prev == LevelNone:
		ev.Kind = EventStart
		s.LastStart = now
		s.EventCount++
	case cur == LevelNone:
		ev.Kind = EventEnd
		ev.Duration = now - s.LastStart
		s.LastEnd = now
	default:
		ev.Kind = EventChange
	}
	return ev, true
}

func (d *Detector) peak(now float64) (Event, bool) {
	s := &d.state
	if !s.Config.PeakEnabled {
		return Event{}, false
	}

	delta := s.Energy - s.PreviousEnergy
	increase := 0.0
	if s.PreviousEnergy >= minPeakBaseline {
		increase = delta / s.PreviousEnergy
	}
	if delta <= 0 || increase < s.Config.PeakThreshold {
		return Event{}, false
	}
	if d.peaked && now-s.LastPeak < PeakDebounce {
		return Event{}, false
	}

	d.peaked = true
	s.PeakCount++
	s.PeakEnergy = s.Energy
	s.LastPeak = now
	return Event{
		Kind:          EventPeak,
		Time:          now,
		Level:         s.Level,
		PreviousLevel: s.PreviousLevel,
		Energy:        s.Energy,
		Increase:      increase,
	}, true
}

// State returns a copy of the current state.
func (d *Detector) State() State { return d.state }

// Config returns the active configuration.
func (d *Detector) Config() config.BassConfig { return d.state.Config }

// SetConfig swaps the configuration; it takes effect on the next Step.
func (d *Detector) SetConfig(cfg config.BassConfig) { d.state.Config = cfg }

// ResetCounters clears the event and peak counters.
func (d *Detector) ResetCounters() {
	d.state.EventCount = 0
	d.state.PeakCount = 0
}
