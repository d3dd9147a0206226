package app

import (
	"errors"
	"testing"

	"github.com/guidoenr/bassync/internal/analyzer"
	"github.com/guidoenr/bassync/internal/decode"
	"github.com/guidoenr/bassync/internal/eventlog"
)

func TestAnalyzeTrackFindsBursts(t *testing.T) {
	gen := newFakeGenerator(defaultSampleRate, 7)
	frames := int(fakeCycle * defaultSampleRate)
	samples := append([]float32(nil), gen.Generate(frames)...)
	track := &decode.Track{Samples: samples, SampleRate: defaultSampleRate, Channels: 2, Title: "synthetic"}

	var records int
	tl, err := AnalyzeTrack(track, OfflineConfig{
		Sink: eventlog.SinkFunc(func(analyzer.Event) error {
			records++
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("AnalyzeTrack: %v", err)
	}
	if tl.Track() != "synthetic" || tl.Duration() != fakeCycle {
		t.Fatalf("track=%q duration=%v", tl.Track(), tl.Duration())
	}

	events := tl.Events()
	if len(events) != 3 {
		t.Fatalf("got %d events want 3: %+v", len(events), events)
	}
	want := []struct {
		start float64
		level analyzer.Level
	}{
		{0, analyzer.LevelLow},
		{3, analyzer.LevelMedium},
		{6, analyzer.LevelHigh},
	}
	for i, w := range want {
		ev := events[i]
		if ev.Level != w.level {
			t.Fatalf("event %d level=%v want %v", i, ev.Level, w.level)
		}
		if ev.Start < w.start || ev.Start > w.start+0.5 {
			t.Fatalf("event %d start=%v want near %v", i, ev.Start, w.start)
		}
		if ev.End < w.start+2 || ev.End > w.start+2.6 {
			t.Fatalf("event %d end=%v want shortly after %v", i, ev.End, w.start+2)
		}
	}
	if records < 6 {
		t.Fatalf("sink saw %d records, want at least a start and end per burst", records)
	}
}

func TestAnalyzeTrackMinDuration(t *testing.T) {
	gen := newFakeGenerator(defaultSampleRate, 7)
	track := &decode.Track{
		Samples:    append([]float32(nil), gen.Generate(int(fakeCycle*defaultSampleRate))...),
		SampleRate: defaultSampleRate,
		Channels:   2,
	}
	tl, err := AnalyzeTrack(track, OfflineConfig{MinDuration: 5})
	if err != nil {
		t.Fatalf("AnalyzeTrack: %v", err)
	}
	if tl.Len() != 0 || tl.Track() != "untitled" {
		t.Fatalf("len=%d track=%q", tl.Len(), tl.Track())
	}
}

func TestAnalyzeTrackEmpty(t *testing.T) {
	if _, err := AnalyzeTrack(&decode.Track{SampleRate: 44100, Channels: 2}, OfflineConfig{}); !errors.Is(err, decode.ErrEmptyStream) {
		t.Fatalf("err=%v want ErrEmptyStream", err)
	}
}
