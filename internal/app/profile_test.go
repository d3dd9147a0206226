package app

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func TestProfilerWritesSections(t *testing.T) {
	var buf bytes.Buffer
	clock := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	p := newProfilerTo(nopCloser{&buf}, func() time.Time {
		clock = clock.Add(2 * time.Millisecond)
		return clock
	})

	p.beginFrame()
	p.mark("analyze")
	p.mark("render")
	p.endFrame()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || lines[0] != "timestamp,section,delta_ms" {
		t.Fatalf("csv:\n%s", buf.String())
	}
	if !strings.HasSuffix(lines[1], ",analyze,2.000") || !strings.HasSuffix(lines[3], ",frame_total,6.000") {
		t.Fatalf("csv:\n%s", buf.String())
	}
}

func TestNilProfilerIsNoop(t *testing.T) {
	var p *profiler
	p.beginFrame()
	p.mark("x")
	p.endFrame()
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if newProfiler("", nil) != nil {
		t.Fatalf("empty path should disable profiling")
	}
}
