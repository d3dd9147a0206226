package dsp

import "math"

// SmoothingFactor is the weight given to the freshly computed magnitude.
const SmoothingFactor = 0.3

// Spectrum is an exponentially smoothed magnitude spectrum of N/2 bins.
type Spectrum struct {
	values []float64
}

// NewSpectrum allocates a spectrum for an FFT of fftSize points.
func NewSpectrum(fftSize int) *Spectrum {
	return &Spectrum{values: make([]float64, fftSize/2)}
}

// Update folds the magnitudes of the complex bins into the smoothed spectrum.
// Magnitudes are normalized by N/4 where N = len(re).
func (s *Spectrum) Update(re, im []float64) {
	norm := float64(len(re)) / 4
	if norm <= 0 {
		return
	}
	for i := range s.values {
		mag := math.Sqrt(re[i]*re[i]+im[i]*im[i]) / norm
		s.values[i] = s.values[i]*(1-SmoothingFactor) + mag*SmoothingFactor
	}
}

// Values returns the live spectrum. Callers must not keep it across updates.
func (s *Spectrum) Values() []float64 { return s.values }

// Bins returns the number of bins.
func (s *Spectrum) Bins() int { return len(s.values) }

// Reset zeroes the spectrum.
func (s *Spectrum) Reset() {
	for i := range s.values {
		s.values[i] = 0
	}
}
