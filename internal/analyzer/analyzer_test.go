package analyzer

import (
	"errors"
	"math"
	"testing"

	"github.com/guidoenr/bassync/internal/config"
	"github.com/guidoenr/bassync/internal/dsp"
)

func sine(freq, amp, sampleRate float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return out
}

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	_, err := New(Config{FFTSize: 1000})
	if !errors.Is(err, dsp.ErrNotPowerOfTwo) {
		t.Fatalf("err=%v want ErrNotPowerOfTwo", err)
	}
}

func TestSilenceHasZeroEnergy(t *testing.T) {
	for _, cfg := range []config.BassConfig{
		config.Defaults(),
		{ThresholdLow: 0.5, ThresholdMedium: 0.6, ThresholdHigh: 0.7, PeakEnabled: true, PeakThreshold: 0.1},
	} {
		a, err := New(Config{SampleRate: 44100, FFTSize: 2048, Bass: cfg})
		if err != nil {
			t.Fatal(err)
		}
		frame := a.Process(make([]float32, 2048), 0.05)
		if frame.Energy != 0 {
			t.Fatalf("energy=%f want=0", frame.Energy)
		}
		if frame.Level != LevelNone || len(frame.Events) != 0 {
			t.Fatalf("unexpected frame for silence: %+v", frame)
		}
	}
}

func TestBassToneRaisesLevel(t *testing.T) {
	a, err := New(Config{SampleRate: 44100, FFTSize: 2048})
	if err != nil {
		t.Fatal(err)
	}
	tone := sine(60, 0.8, 44100, 2048)

	var first []Event
	var frame Frame
	for i := 0; i < 12; i++ {
		frame = a.Process(tone, float64(i)*0.05)
		if first == nil && len(frame.Events) > 0 {
			first = frame.Events
		}
	}
	if frame.Level < LevelMedium {
		t.Fatalf("level=%s energy=%f, expected at least MEDIUM", frame.Level, frame.Energy)
	}
	if len(first) == 0 || first[0].Kind != EventStart {
		t.Fatalf("expected first record to be START, got %+v", first)
	}
	if a.History().Len() != 12 {
		t.Fatalf("history len=%d want=12", a.History().Len())
	}
}

func TestTrebleToneIsNotBass(t *testing.T) {
	a, err := New(Config{SampleRate: 44100, FFTSize: 2048})
	if err != nil {
		t.Fatal(err)
	}
	tone := sine(5000, 0.8, 44100, 2048)
	var frame Frame
	for i := 0; i < 10; i++ {
		frame = a.Process(tone, float64(i)*0.05)
	}
	if frame.Level != LevelNone {
		t.Fatalf("level=%s energy=%f, expected NONE for a 5 kHz tone", frame.Level, frame.Energy)
	}
}

func TestBassBandBins(t *testing.T) {
	band := NewBassBand(2048, 44100)
	if band.Start != 2 || band.End != 11 {
		t.Fatalf("band=%+v want {2 11}", band)
	}
	small := NewBassBand(16, 44100)
	if small.End > 7 {
		t.Fatalf("band end %d exceeds spectrum", small.End)
	}
}

func TestBassEnergyWeights(t *testing.T) {
	band := BassBand{Start: 2, End: 4}
	spectrum := []float64{9, 9, 1, 0, 0, 9}
	// weights: bin2=1.5, bin3=1.25, bin4=1
	want := math.Sqrt(1.5 / 3.75)
	if got := band.Energy(spectrum); math.Abs(got-want) > 1e-12 {
		t.Fatalf("energy=%f want=%f", got, want)
	}
}

func TestBassEnergyDegenerateBand(t *testing.T) {
	if got := (BassBand{Start: 2, End: 1}).Energy([]float64{1, 1, 1}); got != 0 {
		t.Fatalf("energy=%f want=0", got)
	}
}
