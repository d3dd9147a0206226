package audio

import (
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/guidoenr/bassync/internal/decode"
)

// Playback plays a decoded track on the default output device and mirrors
// every block it plays into a SampleBuffer, so analysis follows what is heard.
type Playback struct {
	stream   *portaudio.Stream
	track    *decode.Track
	sink     *SampleBuffer
	pos      atomic.Int64 // frames handed to the device
	finished atomic.Bool
}

// NewPlayback opens and starts an output stream for track.
func NewPlayback(track *decode.Track, framesPerBuffer int, sink *SampleBuffer) (*Playback, error) {
	if sink == nil {
		return nil, fmt.Errorf("playback: nil sample buffer")
	}
	if track == nil || track.Frames() == 0 {
		return nil, decode.ErrEmptyStream
	}
	if framesPerBuffer <= 0 {
		framesPerBuffer = defaultFramesPerBuffer
	}

	p := &Playback{track: track, sink: sink}
	stream, err := portaudio.OpenDefaultStream(0, track.Channels, track.SampleRate, framesPerBuffer, p.process)
	if err != nil {
		return nil, fmt.Errorf("open output stream: %w", err)
	}
	p.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start output stream: %w", err)
	}
	return p, nil
}

// process runs on the PortAudio thread.
func (p *Playback) process(out []float32) {
	p.fill(out)
	p.sink.Push(out, p.track.Channels)
}

// fill copies the next block of the track into out and pads with silence
// once the track is exhausted.
func (p *Playback) fill(out []float32) {
	ch := p.track.Channels
	start := int(p.pos.Load()) * ch
	n := 0
	if start < len(p.track.Samples) {
		n = copy(out, p.track.Samples[start:])
	}
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	p.pos.Add(int64(n / ch))
	if start+n >= len(p.track.Samples) {
		p.finished.Store(true)
	}
}

// Position returns the playback position in seconds.
func (p *Playback) Position() float64 {
	return float64(p.pos.Load()) / p.track.SampleRate
}

// Finished reports whether every frame of the track has been played.
func (p *Playback) Finished() bool { return p.finished.Load() }

// SampleRate returns the track rate, which the stream runs at.
func (p *Playback) SampleRate() float64 { return p.track.SampleRate }

// Close stops and closes the output stream.
func (p *Playback) Close() error {
	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil && !errorsIsInvalidStreamState(err) {
		return err
	}
	return p.stream.Close()
}
