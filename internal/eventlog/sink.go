package eventlog

import (
	"errors"
	"log"

	"github.com/guidoenr/bassync/internal/analyzer"
)

// Sink receives detector records in emission order.
type Sink interface {
	Write(ev analyzer.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev analyzer.Event) error

func (f SinkFunc) Write(ev analyzer.Event) error { return f(ev) }

// Console prints formatted records through a logger.
type Console struct {
	Log *log.Logger
}

func (c Console) Write(ev analyzer.Event) error {
	if c.Log == nil {
		return nil
	}
	c.Log.Println(Format(ev))
	return nil
}

// Multi fans a record out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Write(ev analyzer.Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
