package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
)

// DefaultPath is where the live tool keeps its thresholds.
const DefaultPath = "bass_config.txt"

var (
	// ErrThresholdOrder means the thresholds are not strictly ascending.
	ErrThresholdOrder = errors.New("config: thresholds must satisfy low < medium < high")
	// ErrPeakThreshold means the peak threshold is not positive.
	ErrPeakThreshold = errors.New("config: peak_threshold must be positive")
)

// BassConfig holds the classifier thresholds and peak detection settings.
type BassConfig struct {
	ThresholdLow    float64 `json:"thresholdLow"`
	ThresholdMedium float64 `json:"thresholdMedium"`
	ThresholdHigh   float64 `json:"thresholdHigh"`
	PeakEnabled     bool    `json:"peakEnabled"`
	PeakThreshold   float64 `json:"peakThreshold"`
}

// Defaults returns the built-in thresholds.
func Defaults() BassConfig {
	return BassConfig{
		ThresholdLow:    0.05,
		ThresholdMedium: 0.15,
		ThresholdHigh:   0.30,
		PeakEnabled:     false,
		PeakThreshold:   0.20,
	}
}

// Validate checks threshold ordering and the peak threshold.
func (c BassConfig) Validate() error {
	if !(c.ThresholdLow < c.ThresholdMedium && c.ThresholdMedium < c.ThresholdHigh) {
		return fmt.Errorf("%w (low=%.3f medium=%.3f high=%.3f)", ErrThresholdOrder, c.ThresholdLow, c.ThresholdMedium, c.ThresholdHigh)
	}
	if c.PeakThreshold <= 0 {
		return fmt.Errorf("%w (got %.3f)", ErrPeakThreshold, c.PeakThreshold)
	}
	return nil
}

// Load reads path. A missing file yields Defaults and no error. The returned
// config is always usable; a non-nil error reports a read failure or a
// Validate failure of the parsed values.
func Load(path string) (BassConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Parse reads key=value lines on top of Defaults. Comments, blank lines,
// unknown keys and unparsable values are skipped.
func Parse(r io.Reader) (BassConfig, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		cfg.set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return cfg, scanner.Err()
}

func (c *BassConfig) set(key, value string) {
	if key == "peak_enabled" {
		n, err := strconv.Atoi(value)
		if err == nil {
			c.PeakEnabled = n != 0
		}
		return
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	switch key {
	case "threshold_low":
		c.ThresholdLow = v
	case "threshold_medium":
		c.ThresholdMedium = v
	case "threshold_high":
		c.ThresholdHigh = v
	case "peak_threshold":
		c.PeakThreshold = v
	}
}

// Write serializes the config in the key=value format with header comments.
func (c BassConfig) Write(w io.Writer) error {
	peak := 0
	if c.PeakEnabled {
		peak = 1
	}
	_, err := fmt.Fprintf(w, `# Bass detection configuration
# Thresholds must be ascending: low < medium < high
# peak_enabled: 0 = off, 1 = on
# peak_threshold: relative energy increase that counts as a peak (0.20 = +20%%)

threshold_low=%.3f
threshold_medium=%.3f
threshold_high=%.3f
peak_enabled=%d
peak_threshold=%.3f
`, c.ThresholdLow, c.ThresholdMedium, c.ThresholdHigh, peak, c.PeakThreshold)
	return err
}

// Save rewrites path with the full config.
func Save(path string, c BassConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if err := c.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}
