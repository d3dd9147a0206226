// Package decode turns audio files into interleaved float32 PCM for analysis
// and playback.
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrEmptyStream       = errors.New("audio stream has no samples")
)

// Track is a fully decoded file. Samples are interleaved in [-1, 1].
type Track struct {
	Samples    []float32
	SampleRate float64
	Channels   int
	Title      string
	Artist     string
}

// Frames returns the number of sample frames.
func (t *Track) Frames() int {
	if t.Channels == 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	if t.SampleRate <= 0 {
		return 0
	}
	return float64(t.Frames()) / t.SampleRate
}

// Mono returns the first channel, matching what the live capture path analyzes.
func (t *Track) Mono() []float32 {
	out := make([]float32, t.Frames())
	for i := range out {
		out[i] = t.Samples[i*t.Channels]
	}
	return out
}

// Open decodes the file at path, picking a decoder by extension.
func Open(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var track *Track
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		track, err = decodeMP3(f)
	case ".wav":
		track, err = decodeWAV(f)
	case ".flac":
		track, err = decodeFLAC(f)
	case ".ogg":
		track, err = decodeOGG(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	meta := ReadTags(path)
	track.Title, track.Artist = meta.Title, meta.Artist
	return track, nil
}

func newTrack(samples []float32, sampleRate float64, channels int) (*Track, error) {
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid stream format: %d channels at %.0f Hz", channels, sampleRate)
	}
	if len(samples) < channels {
		return nil, ErrEmptyStream
	}
	samples = samples[:len(samples)-len(samples)%channels]
	return &Track{Samples: samples, SampleRate: sampleRate, Channels: channels}, nil
}

// go-mp3 always yields 16-bit little-endian stereo.
func decodeMP3(r io.Reader) (*Track, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}
	return newTrack(samples, float64(dec.SampleRate()), 2)
}

func decodeWAV(r io.ReadSeeker) (*Track, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read WAV PCM: %w", err)
	}

	depth := int(dec.BitDepth)
	if depth == 0 || depth > 32 {
		return nil, fmt.Errorf("unsupported WAV bit depth %d", depth)
	}
	scale := float32(int64(1) << (depth - 1))

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if depth == 8 {
			// 8-bit WAV is unsigned.
			v -= 128
		}
		samples[i] = float32(v) / scale
	}
	return newTrack(samples, float64(dec.SampleRate), int(dec.NumChans))
}

func decodeFLAC(r io.Reader) (*Track, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	scale := float32(int64(1) << (stream.Info.BitsPerSample - 1))
	samples := make([]float32, 0, int(stream.Info.NSamples)*channels)

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		n := int(frame.Subframes[0].NSamples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, float32(frame.Subframes[ch].Samples[i])/scale)
			}
		}
	}
	return newTrack(samples, float64(stream.Info.SampleRate), channels)
}

func decodeOGG(r io.Reader) (*Track, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, err
	}

	channels := reader.Channels()
	samples := make([]float32, 0, int(reader.Length())*channels)
	chunk := make([]float32, 4096*channels)
	for {
		n, err := reader.Read(chunk)
		samples = append(samples, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return newTrack(samples, float64(reader.SampleRate()), channels)
}
