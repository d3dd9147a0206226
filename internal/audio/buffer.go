package audio

import "sync/atomic"

// SampleBuffer hands one window of mono samples from the audio callback to
// the frame loop. It has exactly one writer (Push) and one reader (Drain).
//
// The fill count is the handoff: Push only writes while collected < N and
// publishes with an atomic store; Drain only reads once it observes
// collected == N and releases the buffer by storing 0. Neither side locks or
// allocates.
type SampleBuffer struct {
	buf       []float32
	collected atomic.Int64
	frames    atomic.Int64
	stamp     int64 // frames seen when buf filled; owned by the writer until collected == N
}

// NewSampleBuffer allocates a buffer of size samples.
func NewSampleBuffer(size int) *SampleBuffer {
	return &SampleBuffer{buf: make([]float32, size)}
}

// Push stores the first channel of each interleaved frame in `in` until the
// buffer is full; later frames are dropped. It returns the number of frames
// stored. Every frame offered advances the stream clock, stored or not.
func (b *SampleBuffer) Push(in []float32, channels int) int {
	if channels < 1 {
		channels = 1
	}
	n := int(b.collected.Load())
	start := n
	frames := b.frames.Load()

	for i := 0; i+channels <= len(in); i += channels {
		frames++
		if n < len(b.buf) {
			b.buf[n] = in[i]
			n++
			if n == len(b.buf) {
				b.stamp = frames
			}
		}
	}

	b.frames.Store(frames)
	if n != start {
		b.collected.Store(int64(n))
	}
	return n - start
}

// Full reports whether a window is waiting to be drained.
func (b *SampleBuffer) Full() bool {
	return int(b.collected.Load()) == len(b.buf)
}

// Drain copies a full window into dst and hands the buffer back to the
// writer. It returns the stream frame count at the moment the window filled
// and false when the window is not full yet.
func (b *SampleBuffer) Drain(dst []float32) (int64, bool) {
	if !b.Full() {
		return 0, false
	}
	copy(dst, b.buf)
	stamp := b.stamp
	b.collected.Store(0)
	return stamp, true
}

// Size returns the window length.
func (b *SampleBuffer) Size() int { return len(b.buf) }

// Frames returns how many frames have been offered to Push.
func (b *SampleBuffer) Frames() int64 { return b.frames.Load() }
