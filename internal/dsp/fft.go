package dsp

import (
	"errors"
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"
)

// ErrNotPowerOfTwo is returned when an FFT is requested for a size that is not 2^k.
var ErrNotPowerOfTwo = errors.New("dsp: fft size must be a power of two")

// FFT is a fixed-size radix-2 Cooley-Tukey transform with a precomputed
// Hamming window, bit-reversal table and twiddle factors.
type FFT struct {
	n      int
	window []float64
	rev    []int
	cos    []float64
	sin    []float64
}

// NewFFT prepares an FFT for n points. n must be a power of two and at least 2.
func NewFFT(n int) (*FFT, error) {
	if !IsPowerOfTwo(n) || n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotPowerOfTwo, n)
	}

	f := &FFT{
		n:      n,
		window: window.Hamming(n),
		rev:    make([]int, n),
		cos:    make([]float64, n/2),
		sin:    make([]float64, n/2),
	}

	bits := 0
	for 1<<bits < n {
		bits++
	}
	for i := range f.rev {
		f.rev[i] = reverseBits(i, bits)
	}
	for i := range f.cos {
		angle := 2.0 * math.Pi * float64(i) / float64(n)
		f.sin[i], f.cos[i] = math.Sincos(angle)
	}
	return f, nil
}

// Size returns the number of points.
func (f *FFT) Size() int { return f.n }

// Coefficients returns the Hamming window used by Window.
func (f *FFT) Coefficients() []float64 { return f.window }

// Window tapers src with the Hamming window into re and clears im.
// All three slices must hold at least Size() elements.
func (f *FFT) Window(re, im []float64, src []float32) {
	for i := 0; i < f.n; i++ {
		re[i] = float64(src[i]) * f.window[i]
		im[i] = 0
	}
}

// Forward transforms (re, im) in place.
func (f *FFT) Forward(re, im []float64) {
	f.transform(re, im, -1)
}

// Inverse undoes Forward in place, including the 1/N scaling.
func (f *FFT) Inverse(re, im []float64) {
	f.transform(re, im, 1)
	scale := 1.0 / float64(f.n)
	for i := 0; i < f.n; i++ {
		re[i] *= scale
		im[i] *= scale
	}
}

func (f *FFT) transform(re, im []float64, sign float64) {
	n := f.n
	re = re[:n]
	im = im[:n]

	for i, j := range f.rev {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		stride := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				wr := f.cos[k*stride]
				wi := sign * f.sin[k*stride]
				a := start + k
				b := a + half
				tr := wr*re[b] - wi*im[b]
				ti := wr*im[b] + wi*re[b]
				re[b] = re[a] - tr
				im[b] = im[a] - ti
				re[a] += tr
				im[a] += ti
			}
		}
	}
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func reverseBits(v, bits int) int {
	out := 0
	for i := 0; i < bits; i++ {
		out = out<<1 | v&1
		v >>= 1
	}
	return out
}
