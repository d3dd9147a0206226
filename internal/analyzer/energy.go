package analyzer

import "math"

const (
	// BassFreqMax is the upper edge of the bass band in Hz.
	BassFreqMax = 250.0
	// bassStartBin skips DC and the first near-DC bin.
	bassStartBin = 2
)

// BassBand is the inclusive bin range [Start, End] summed into bass energy.
type BassBand struct {
	Start int
	End   int
}

// NewBassBand computes the bass bins for an FFT of fftSize points at sampleRate.
func NewBassBand(fftSize int, sampleRate float64) BassBand {
	end := 0
	if sampleRate > 0 {
		end = int(math.Floor(BassFreqMax * float64(fftSize) / sampleRate))
	}
	if maxBin := fftSize/2 - 1; end > maxBin {
		end = maxBin
	}
	return BassBand{Start: bassStartBin, End: end}
}

// Energy reduces a magnitude spectrum to one weighted bass value. Each bin's
// power is weighted by 1 + (End-i)/End so lower bins count more.
func (b BassBand) Energy(spectrum []float64) float64 {
	end := b.End
	if end >= len(spectrum) {
		end = len(spectrum) - 1
	}

	var sum, totalWeight float64
	for i := b.Start; i <= end; i++ {
		weight := 1.0 + float64(b.End-i)/float64(b.End)
		mag := spectrum[i]
		sum += mag * mag * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return math.Sqrt(sum / totalWeight)
}
