package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// profiler appends per-section frame timings as CSV. A nil profiler is a no-op.
type profiler struct {
	mu    sync.Mutex
	out   io.WriteCloser
	now   func() time.Time
	start time.Time
	last  time.Time
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if logger != nil {
			logger.Printf("profiler disabled: %v", err)
		}
		return nil
	}
	return newProfilerTo(f, time.Now)
}

func newProfilerTo(out io.WriteCloser, now func() time.Time) *profiler {
	p := &profiler{out: out, now: now}
	fmt.Fprintln(out, "timestamp,section,delta_ms")
	return p
}

func (p *profiler) beginFrame() {
	if p == nil {
		return
	}
	t := p.now()
	p.start = t
	p.last = t
}

// mark records the time since the previous mark under name.
func (p *profiler) mark(name string) {
	if p == nil {
		return
	}
	t := p.now()
	p.write(t, name, t.Sub(p.last))
	p.last = t
}

func (p *profiler) endFrame() {
	if p == nil {
		return
	}
	t := p.now()
	p.write(t, "frame_total", t.Sub(p.start))
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Close()
}

func (p *profiler) write(at time.Time, section string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s,%s,%.3f\n", at.Format(time.RFC3339Nano), section, float64(d)/float64(time.Millisecond))
}
