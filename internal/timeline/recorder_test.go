package timeline

import (
	"testing"

	"github.com/guidoenr/bassync/internal/analyzer"
	"github.com/guidoenr/bassync/internal/config"
)

func TestRecorderFromDetector(t *testing.T) {
	d := analyzer.NewDetector(config.Defaults())
	rec := &Recorder{}
	energies := []float64{0, 0.1, 0.2, 0.35, 0.2, 0.01, 0, 0.08, 0.09, 0.0}
	for i, e := range energies {
		now := float64(i)
		rec.ObserveFrame(analyzer.Frame{Time: now, Energy: e, Events: d.Step(e, now)})
	}
	tl, err := rec.Finish("t", 20)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	events := tl.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events: %+v", len(events), events)
	}
	first := events[0]
	if first.Start != 1 || first.End != 5 || first.Level != analyzer.LevelHigh || first.Energy != 0.35 || first.Duration != 4 {
		t.Fatalf("first=%+v", first)
	}
	second := events[1]
	if second.Start != 7 || second.End != 9 || second.Level != analyzer.LevelLow {
		t.Fatalf("second=%+v", second)
	}
}

func TestRecorderClosesOpenIntervalAtFinish(t *testing.T) {
	rec := &Recorder{}
	rec.Observe(analyzer.Event{Kind: analyzer.EventStart, Time: 3, Level: analyzer.LevelMedium, Energy: 0.2})
	tl, err := rec.Finish("t", 10)
	if err != nil {
		t.Fatal(err)
	}
	ev, ok := tl.CurrentEvent(9.5)
	if !ok || ev.End != 10 || ev.Duration != 7 {
		t.Fatalf("unexpected event %+v ok=%v", ev, ok)
	}
}

func TestRecorderMergeAndMinDuration(t *testing.T) {
	rec := &Recorder{MergeGap: 0.5, MinDuration: 1}
	feed := []analyzer.Event{
		{Kind: analyzer.EventStart, Time: 1, Level: analyzer.LevelLow, Energy: 0.06},
		{Kind: analyzer.EventEnd, Time: 2},
		{Kind: analyzer.EventStart, Time: 2.3, Level: analyzer.LevelHigh, Energy: 0.4},
		{Kind: analyzer.EventEnd, Time: 4},
		{Kind: analyzer.EventStart, Time: 6, Level: analyzer.LevelLow, Energy: 0.06},
		{Kind: analyzer.EventEnd, Time: 6.4},
	}
	for _, ev := range feed {
		if err := rec.Write(ev); err != nil {
			t.Fatal(err)
		}
	}
	tl, err := rec.Finish("t", 10)
	if err != nil {
		t.Fatal(err)
	}
	events := tl.Events()
	if len(events) != 1 {
		t.Fatalf("got %+v", events)
	}
	if events[0].Start != 1 || events[0].End != 4 || events[0].Level != analyzer.LevelHigh || events[0].Energy != 0.4 {
		t.Fatalf("merged=%+v", events[0])
	}
}
