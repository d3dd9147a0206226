package audio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Capture wraps a PortAudio input stream and feeds its first channel into a SampleBuffer.
type Capture struct {
	stream     *portaudio.Stream
	sampleRate float64
	channels   int
	device     *portaudio.DeviceInfo
	sink       *SampleBuffer
}

// Config controls how a Capture instance is created.
type Config struct {
	DeviceName      string
	Channels        int
	FramesPerBuffer int
}

const defaultFramesPerBuffer = 512

// NewCapture opens and starts a PortAudio input stream writing into sink.
func NewCapture(cfg Config, sink *SampleBuffer) (*Capture, error) {
	if sink == nil {
		return nil, fmt.Errorf("capture: nil sample buffer")
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = defaultFramesPerBuffer
	}

	device, err := findDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}

	channels := cfg.Channels
	if channels <= 0 {
		channels = 2
	}
	if channels > device.MaxInputChannels {
		channels = device.MaxInputChannels
	}

	capture := &Capture{
		sampleRate: device.DefaultSampleRate,
		channels:   channels,
		device:     device,
		sink:       sink,
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      capture.sampleRate,
		FramesPerBuffer: cfg.FramesPerBuffer,
	}, capture.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	capture.stream = stream

	if err := capture.stream.Start(); err != nil {
		_ = capture.stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}

	return capture, nil
}

// Close stops and closes the underlying PortAudio stream.
func (c *Capture) Close() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil && !errorsIsInvalidStreamState(err) {
		return err
	}
	return c.stream.Close()
}

// SampleRate returns the stream sample rate.
func (c *Capture) SampleRate() float64 {
	return c.sampleRate
}

// Device returns the PortAudio device associated with the capture stream.
func (c *Capture) Device() *portaudio.DeviceInfo {
	return c.device
}

// process runs on the PortAudio thread.
func (c *Capture) process(in []float32) {
	c.sink.Push(in, c.channels)
}

func findDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	if name != "" {
		if dev := matchInput(devices, name); dev != nil {
			return dev, nil
		}
		return nil, fmt.Errorf("audio device %q not found", name)
	}

	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev != nil && dev.MaxInputChannels > 0 {
		return dev, nil
	}

	ranked := rankInputs(devices, defaultInputIndex(), defaultHostInputIndex())
	if len(ranked) == 0 {
		return nil, fmt.Errorf("no suitable audio input device found")
	}
	return ranked[0], nil
}

// matchInput returns the first input device whose name contains name, case-insensitively.
func matchInput(devices []*portaudio.DeviceInfo, name string) *portaudio.DeviceInfo {
	name = strings.ToLower(name)
	for _, d := range devices {
		if d == nil || d.MaxInputChannels == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(d.Name), name) {
			return d
		}
	}
	return nil
}

// loopbackKeywords mark devices that carry what the machine is playing, which
// is what a music analyzer usually wants.
var loopbackKeywords = []string{"monitor", "loopback", "stereo mix", "what u hear", "mix"}

// rankInputs orders input-capable devices best first.
func rankInputs(devices []*portaudio.DeviceInfo, defaultInput, defaultHost int) []*portaudio.DeviceInfo {
	type scored struct {
		dev   *portaudio.DeviceInfo
		score int
	}

	var results []scored
	for _, d := range devices {
		if d == nil || d.MaxInputChannels <= 0 {
			continue
		}

		score := d.MaxInputChannels
		if d.Index == defaultInput {
			score += 50
		}
		if d.Index == defaultHost {
			score += 40
		}

		lower := strings.ToLower(d.Name)
		for _, kw := range loopbackKeywords {
			if strings.Contains(lower, kw) {
				score += 20
				break
			}
		}
		if strings.Contains(lower, "default") {
			score += 10
		}

		results = append(results, scored{dev: d, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return strings.ToLower(results[i].dev.Name) < strings.ToLower(results[j].dev.Name)
		}
		return results[i].score > results[j].score
	})

	out := make([]*portaudio.DeviceInfo, len(results))
	for i, r := range results {
		out[i] = r.dev
	}
	return out
}

func defaultInputIndex() int {
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		return def.Index
	}
	return -1
}

func defaultHostInputIndex() int {
	if host, err := portaudio.DefaultHostApi(); err == nil && host != nil && host.DefaultInputDevice != nil {
		return host.DefaultInputDevice.Index
	}
	return -1
}

// errorsIsInvalidStreamState checks if the provided error stems from stopping an already stopped stream.
func errorsIsInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}

// AutoDetectDevice returns the best available input device PortAudio can find.
func AutoDetectDevice() (*portaudio.DeviceInfo, error) {
	return findDevice("")
}
