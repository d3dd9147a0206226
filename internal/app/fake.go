package app

import (
	"math"
	"math/rand"

	"github.com/guidoenr/bassync/internal/audio"
)

const (
	fakeBassHz  = 60.0
	fakeHatHz   = 3000.0
	fakeNoise   = 0.02
	fakeCycle   = 9.0
	fakeHatRate = 4.0 // hats per second
)

// fakeBursts is the synthetic bass envelope: quiet, medium and loud bursts
// separated by one second of silence.
var fakeBursts = []struct{ from, to, amp float64 }{
	{0, 2, 0.15},
	{3, 5, 0.45},
	{6, 8, 0.9},
}

// fakeGenerator synthesizes stereo audio with bass bursts, a hi-hat and noise.
type fakeGenerator struct {
	rng        *rand.Rand
	sampleRate float64
	frame      int64
	carry      float64
	scratch    []float32
}

func newFakeGenerator(sampleRate float64, seed int64) *fakeGenerator {
	return &fakeGenerator{
		rng:        rand.New(rand.NewSource(seed)),
		sampleRate: sampleRate,
	}
}

func fakeEnvelope(t float64) float64 {
	pos := math.Mod(t, fakeCycle)
	for _, b := range fakeBursts {
		if pos >= b.from && pos < b.to {
			return b.amp
		}
	}
	return 0
}

// Generate returns the next frames frames as interleaved stereo.
func (f *fakeGenerator) Generate(frames int) []float32 {
	if cap(f.scratch) < frames*2 {
		f.scratch = make([]float32, frames*2)
	}
	out := f.scratch[:frames*2]
	for i := 0; i < frames; i++ {
		t := float64(f.frame) / f.sampleRate
		bass := fakeEnvelope(t) * math.Sin(2*math.Pi*fakeBassHz*t)

		hatAge := math.Mod(t, 1/fakeHatRate)
		hat := 0.1 * math.Exp(-hatAge*60) * math.Sin(2*math.Pi*fakeHatHz*t)

		noise := (f.rng.Float64()*2 - 1) * fakeNoise
		s := float32(bass + hat + noise)
		out[i*2] = s
		out[i*2+1] = s
		f.frame++
	}
	return out
}

// Fill pushes seconds worth of audio into buf, carrying fractional frames.
func (f *fakeGenerator) Fill(buf *audio.SampleBuffer, seconds float64) {
	want := seconds*f.sampleRate + f.carry
	frames := int(want)
	f.carry = want - float64(frames)
	if frames <= 0 {
		return
	}
	buf.Push(f.Generate(frames), 2)
}
