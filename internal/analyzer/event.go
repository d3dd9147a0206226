package analyzer

import (
	"fmt"
	"strings"
)

// EventKind tags a transition record.
type EventKind int

const (
	EventStart EventKind = iota
	EventChange
	EventEnd
	EventPeak
)

var eventKindNames = [...]string{"START", "CHANGE", "END", "PEAK"}

func (k EventKind) String() string {
	if k < EventStart || k > EventPeak {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	for i, name := range eventKindNames {
		if strings.EqualFold(string(text), name) {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", string(text))
}

// Event is one record emitted by the detector, in emission order.
type Event struct {
	Kind          EventKind `json:"kind"`
	Time          float64   `json:"time"`
	Level         Level     `json:"level"`
	PreviousLevel Level     `json:"previousLevel"`
	Energy        float64   `json:"energy"`
	// Duration is set on EventEnd: seconds since the matching EventStart.
	Duration float64 `json:"duration,omitempty"`
	// Increase is set on EventPeak: relative energy jump, 0.38 = +38%.
	Increase float64 `json:"increase,omitempty"`
}

// Frame is the result of analyzing one full sample buffer.
type Frame struct {
	Time   float64 `json:"time"`
	Energy float64 `json:"energy"`
	Level  Level   `json:"level"`
	Events []Event `json:"events,omitempty"`
}
