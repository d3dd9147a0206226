package timeline

import (
	"math"

	"github.com/guidoenr/bassync/internal/analyzer"
)

// Recorder turns a stream of analyzer records into bass events. Each event
// carries the highest level and energy seen while it was open.
type Recorder struct {
	// MergeGap joins an interval to the previous one when the silence
	// between them is shorter than this many seconds.
	MergeGap float64
	// MinDuration drops intervals shorter than this many seconds.
	MinDuration float64

	events []BassEvent
	cur    BassEvent
	open   bool
}

// ObserveFrame records a frame's events and folds its energy into the open interval.
func (r *Recorder) ObserveFrame(f analyzer.Frame) {
	for _, ev := range f.Events {
		r.Observe(ev)
	}
	if r.open {
		r.cur.Energy = math.Max(r.cur.Energy, f.Energy)
	}
}

// Observe applies a single record.
func (r *Recorder) Observe(ev analyzer.Event) {
	switch ev.Kind {
	case analyzer.EventStart:
		r.cur = BassEvent{Start: ev.Time, Level: ev.Level, Energy: ev.Energy}
		r.open = true
	case analyzer.EventChange, analyzer.EventPeak:
		if !r.open {
			return
		}
		if ev.Level > r.cur.Level {
			r.cur.Level = ev.Level
		}
		r.cur.Energy = math.Max(r.cur.Energy, ev.Energy)
	case analyzer.EventEnd:
		if r.open {
			r.close(ev.Time)
		}
	}
}

// Write lets a Recorder sit in an eventlog fan-out.
func (r *Recorder) Write(ev analyzer.Event) error {
	r.Observe(ev)
	return nil
}

func (r *Recorder) close(end float64) {
	r.open = false
	r.cur.End = end
	if n := len(r.events); n > 0 && r.cur.Start-r.events[n-1].End < r.MergeGap {
		prev := &r.events[n-1]
		prev.End = r.cur.End
		if r.cur.Level > prev.Level {
			prev.Level = r.cur.Level
		}
		prev.Energy = math.Max(prev.Energy, r.cur.Energy)
		return
	}
	r.events = append(r.events, r.cur)
}

// Finish closes any open interval at duration and builds the timeline.
func (r *Recorder) Finish(track string, duration float64) (*Timeline, error) {
	if r.open {
		r.close(duration)
	}
	kept := make([]BassEvent, 0, len(r.events))
	for _, ev := range r.events {
		ev.Duration = ev.End - ev.Start
		if ev.Duration < r.MinDuration {
			continue
		}
		kept = append(kept, ev)
	}
	return New(track, duration, kept)
}
