package analyzer

import (
	"fmt"

	"github.com/guidoenr/bassync/internal/config"
	"github.com/guidoenr/bassync/internal/dsp"
)

// Analyzer runs the per-buffer bass pipeline: Hamming window, FFT, smoothed
// magnitude spectrum, weighted bass energy, classification and peak detection.
type Analyzer struct {
	sampleRate float64

	fft      *dsp.FFT
	spectrum *dsp.Spectrum
	history  *dsp.History
	band     BassBand
	detector *Detector

	re []float64
	im []float64
}

// Config controls Analyzer behavior.
type Config struct {
	SampleRate  float64
	FFTSize     int
	HistorySize int
	Bass        config.BassConfig
}

const (
	defaultSampleRate  = 44_100
	defaultFFTSize     = 2048
	defaultHistorySize = 128
)

// New creates an Analyzer. A non power-of-two FFTSize is rejected here rather
// than at Process time.
func New(cfg Config) (*Analyzer, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.FFTSize == 0 {
		cfg.FFTSize = defaultFFTSize
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaultHistorySize
	}
	if cfg.Bass == (config.BassConfig{}) {
		cfg.Bass = config.Defaults()
	}

	engine, err := dsp.NewFFT(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}

	return &Analyzer{
		sampleRate: cfg.SampleRate,
		fft:        engine,
		spectrum:   dsp.NewSpectrum(cfg.FFTSize),
		history:    dsp.NewHistory(cfg.HistorySize, cfg.FFTSize/2),
		band:       NewBassBand(cfg.FFTSize, cfg.SampleRate),
		detector:   NewDetector(cfg.Bass),
		re:         make([]float64, cfg.FFTSize),
		im:         make([]float64, cfg.FFTSize),
	}, nil
}

// Process analyzes one full buffer of mono samples captured up to time now
// (seconds). len(samples) must equal FFTSize.
func (a *Analyzer) Process(samples []float32, now float64) Frame {
	if len(samples) < a.fft.Size() {
		panic(fmt.Sprintf("analyzer: got %d samples, need %d", len(samples), a.fft.Size()))
	}

	a.fft.Window(a.re, a.im, samples)
	a.fft.Forward(a.re, a.im)
	a.spectrum.Update(a.re, a.im)
	a.history.Push(a.spectrum.Values())

	energy := a.band.Energy(a.spectrum.Values())
	events := a.detector.Step(energy, now)
	state := a.detector.State()

	return Frame{
		Time:   now,
		Energy: energy,
		Level:  state.Level,
		Events: events,
	}
}

// FFTSize returns the analysis window length.
func (a *Analyzer) FFTSize() int { return a.fft.Size() }

// SampleRate returns the rate bins are computed against.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// Band returns the bass bin range.
func (a *Analyzer) Band() BassBand { return a.band }

// Spectrum returns the live smoothed spectrum.
func (a *Analyzer) Spectrum() []float64 { return a.spectrum.Values() }

// History returns the spectrogram ring.
func (a *Analyzer) History() *dsp.History { return a.history }

// State returns a snapshot of the detector state.
func (a *Analyzer) State() State { return a.detector.State() }

// Config returns the active bass configuration.
func (a *Analyzer) Config() config.BassConfig { return a.detector.Config() }

// SetConfig replaces the bass configuration.
func (a *Analyzer) SetConfig(cfg config.BassConfig) { a.detector.SetConfig(cfg) }

// ResetCounters clears event and peak counters.
func (a *Analyzer) ResetCounters() { a.detector.ResetCounters() }
