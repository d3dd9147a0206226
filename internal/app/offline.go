package app

import (
	"fmt"

	"github.com/guidoenr/bassync/internal/analyzer"
	"github.com/guidoenr/bassync/internal/audio"
	"github.com/guidoenr/bassync/internal/decode"
	"github.com/guidoenr/bassync/internal/eventlog"
	"github.com/guidoenr/bassync/internal/timeline"
)

// OfflineConfig controls AnalyzeTrack.
type OfflineConfig struct {
	Analyzer    analyzer.Config
	MergeGap    float64
	MinDuration float64
	// Sink, when set, receives every record as it is produced.
	Sink eventlog.Sink
}

// AnalyzeTrack runs the live pipeline over a decoded track as fast as it can
// and records the bass intervals as a timeline named after the track.
func AnalyzeTrack(track *decode.Track, cfg OfflineConfig) (*timeline.Timeline, error) {
	if track == nil || track.Frames() == 0 {
		return nil, decode.ErrEmptyStream
	}
	cfg.Analyzer.SampleRate = track.SampleRate
	an, err := analyzer.New(cfg.Analyzer)
	if err != nil {
		return nil, err
	}

	n := an.FFTSize()
	buffer := audio.NewSampleBuffer(n)
	window := make([]float32, n)
	rec := &timeline.Recorder{MergeGap: cfg.MergeGap, MinDuration: cfg.MinDuration}

	// Whole windows only: pushing exactly one window per drain means the
	// buffer never drops a frame.
	chunk := n * track.Channels
	for off := 0; off+chunk <= len(track.Samples); off += chunk {
		buffer.Push(track.Samples[off:off+chunk], track.Channels)
		stamp, ok := buffer.Drain(window)
		if !ok {
			return nil, fmt.Errorf("analyze %s: window not filled at frame %d", track.Title, off/track.Channels)
		}
		frame := an.Process(window, float64(stamp)/track.SampleRate)
		rec.ObserveFrame(frame)
		if cfg.Sink == nil {
			continue
		}
		for _, ev := range frame.Events {
			if err := cfg.Sink.Write(ev); err != nil {
				return nil, fmt.Errorf("analyze %s: %w", track.Title, err)
			}
		}
	}

	name := track.Title
	if name == "" {
		name = "untitled"
	}
	return rec.Finish(name, track.Duration())
}
