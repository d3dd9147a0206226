package timeline

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/guidoenr/bassync/internal/analyzer"
)

func mustNew(t *testing.T, duration float64, events ...BassEvent) *Timeline {
	t.Helper()
	tl, err := New("test", duration, events)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tl
}

func TestLevelAtSingleInterval(t *testing.T) {
	tl := mustNew(t, 100, BassEvent{Start: 55.85, End: 83.02, Level: analyzer.LevelMedium})
	if got := tl.LevelAt(70.0); got != analyzer.LevelMedium {
		t.Fatalf("LevelAt(70)=%s want MEDIUM", got)
	}
	if got := tl.LevelAt(40.0); got != analyzer.LevelNone {
		t.Fatalf("LevelAt(40)=%s want NONE", got)
	}
	if got := tl.LevelAt(55.85); got != analyzer.LevelMedium {
		t.Fatalf("start bound should be inclusive, got %s", got)
	}
	if got := tl.LevelAt(83.02); got != analyzer.LevelMedium {
		t.Fatalf("end bound should be inclusive, got %s", got)
	}
}

func TestLevelWithAnticipation(t *testing.T) {
	tl := mustNew(t, 200, BassEvent{Start: 100, End: 120, Level: analyzer.LevelHigh})
	cases := []struct {
		time, lead float64
		want       analyzer.Level
	}{
		{96, 5, analyzer.LevelHigh},
		{94, 5, analyzer.LevelNone},
		{95, 5, analyzer.LevelHigh},
		{110, 5, analyzer.LevelHigh},
		{120, 5, analyzer.LevelHigh},
		{121, 5, analyzer.LevelNone},
		{96, 0, analyzer.LevelNone},
	}
	for _, tc := range cases {
		if got := tl.LevelWithAnticipation(tc.time, tc.lead); got != tc.want {
			t.Fatalf("LevelWithAnticipation(%v,%v)=%s want=%s", tc.time, tc.lead, got, tc.want)
		}
	}
}

func TestCurrentEvent(t *testing.T) {
	tl := mustNew(t, 50,
		BassEvent{Start: 1, End: 2, Level: analyzer.LevelLow, Energy: 0.07},
		BassEvent{Start: 5, End: 9, Level: analyzer.LevelHigh, Energy: 0.4},
	)
	ev, ok := tl.CurrentEvent(6)
	if !ok || ev.Level != analyzer.LevelHigh || ev.Duration != 4 {
		t.Fatalf("CurrentEvent(6)=%+v,%v", ev, ok)
	}
	if _, ok := tl.CurrentEvent(3); ok {
		t.Fatalf("CurrentEvent(3) should be empty")
	}
}

func TestNewValidates(t *testing.T) {
	cases := []struct {
		name   string
		events []BassEvent
		want   error
	}{
		{"reversed", []BassEvent{{Start: 5, End: 4, Level: analyzer.LevelLow}}, ErrInvalidEvent},
		{"none level", []BassEvent{{Start: 1, End: 2, Level: analyzer.LevelNone}}, ErrInvalidEvent},
		{"bad duration", []BassEvent{{Start: 1, End: 2, Duration: 3, Level: analyzer.LevelLow}}, ErrInvalidEvent},
		{"past end", []BassEvent{{Start: 1, End: 20, Level: analyzer.LevelLow}}, ErrInvalidEvent},
		{"overlap", []BassEvent{
			{Start: 1, End: 5, Level: analyzer.LevelLow},
			{Start: 4, End: 6, Level: analyzer.LevelLow},
		}, ErrUnordered},
		{"unsorted", []BassEvent{
			{Start: 6, End: 7, Level: analyzer.LevelLow},
			{Start: 1, End: 2, Level: analyzer.LevelLow},
		}, ErrUnordered},
	}
	for _, tc := range cases {
		if _, err := New("x", 10, tc.events); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err=%v want %v", tc.name, err, tc.want)
		}
	}
}

func TestEventsReturnsCopy(t *testing.T) {
	tl := mustNew(t, 10, BassEvent{Start: 1, End: 2, Level: analyzer.LevelLow})
	events := tl.Events()
	events[0].Level = analyzer.LevelHigh
	if tl.LevelAt(1.5) != analyzer.LevelLow {
		t.Fatalf("timeline mutated through Events()")
	}
}

func TestDefaultTimeline(t *testing.T) {
	tl, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if tl.Track() != DefaultTrack || tl.Duration() <= 0 || tl.Len() == 0 {
		t.Fatalf("unexpected default timeline: %s %.2f %d", tl.Track(), tl.Duration(), tl.Len())
	}
	if got := tl.LevelAt(70); got != analyzer.LevelMedium {
		t.Fatalf("LevelAt(70)=%s want MEDIUM", got)
	}
	if got := tl.LevelAt(40); got != analyzer.LevelNone {
		t.Fatalf("LevelAt(40)=%s want NONE", got)
	}
	if got := tl.LevelWithAnticipation(96, 5); got != analyzer.LevelHigh {
		t.Fatalf("LevelWithAnticipation(96,5)=%s want HIGH", got)
	}
	if got := tl.LevelWithAnticipation(94, 5); got != analyzer.LevelNone {
		t.Fatalf("LevelWithAnticipation(94,5)=%s want NONE", got)
	}
	names := EmbeddedTracks()
	if len(names) == 0 || names[0] != DefaultTrack {
		t.Fatalf("EmbeddedTracks=%v", names)
	}
	if _, err := Embedded("missing"); err == nil {
		t.Fatalf("expected error for missing track")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tl := mustNew(t, 30,
		BassEvent{Start: 1.5, End: 3.25, Level: analyzer.LevelMedium, Energy: 0.2},
		BassEvent{Start: 10, End: 12, Level: analyzer.LevelHigh, Energy: 0.5},
	)
	var buf bytes.Buffer
	if err := tl.Write(&buf); err != nil {
		t.Fatal(err)
	}
	back, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Track() != tl.Track() || back.Duration() != tl.Duration() || back.Len() != tl.Len() {
		t.Fatalf("header mismatch")
	}
	for i, ev := range back.Events() {
		if ev != tl.Events()[i] {
			t.Fatalf("event %d: %+v want %+v", i, ev, tl.Events()[i])
		}
	}

	path := filepath.Join(t.TempDir(), "map.json")
	if err := tl.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err != nil {
		t.Fatal(err)
	}
}

func TestCursorAdvance(t *testing.T) {
	tl := mustNew(t, 50,
		BassEvent{Start: 1, End: 2, Level: analyzer.LevelLow},
		BassEvent{Start: 5, End: 9, Level: analyzer.LevelHigh},
	)
	c := tl.NewCursor()
	if _, ok := c.Advance(0.5); ok || c.Index() != 0 {
		t.Fatalf("unexpected event before first interval")
	}
	if ev, ok := c.Advance(1.5); !ok || ev.Level != analyzer.LevelLow {
		t.Fatalf("Advance(1.5)=%+v,%v", ev, ok)
	}
	if _, ok := c.Advance(3); ok || c.Index() != 1 {
		t.Fatalf("expected gap with index 1, got index %d", c.Index())
	}
	if ev, ok := c.Advance(7); !ok || ev.Level != analyzer.LevelHigh {
		t.Fatalf("Advance(7)=%+v,%v", ev, ok)
	}
	if _, ok := c.Advance(20); ok || c.Index() != 2 {
		t.Fatalf("expected end of timeline, index %d", c.Index())
	}
	c.Reset()
	if c.Index() != 0 {
		t.Fatalf("reset failed")
	}
}
