package analyzer

import (
	"fmt"
	"strings"

	"github.com/guidoenr/bassync/internal/config"
)

// Level is the quantized bass intensity of one analysis frame.
type Level int

const (
	LevelNone Level = iota
	LevelLow
	LevelMedium
	LevelHigh
)

var levelNames = [...]string{"NONE", "LOW", "MEDIUM", "HIGH"}

// String is the one place levels are turned into text; logs, UI and JSON all use it.
func (l Level) String() string {
	if l < LevelNone || l > LevelHigh {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts the names produced by String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelNone, fmt.Errorf("unknown bass level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Classify maps energy to a level. Comparisons are strict, so an energy equal
// to a threshold belongs to the band above it.
func Classify(energy float64, cfg config.BassConfig) Level {
	switch {
	case energy < cfg.ThresholdLow:
		return LevelNone
	case energy < cfg.ThresholdMedium:
		return LevelLow
	case energy < cfg.ThresholdHigh:
		return LevelMedium
	default:
		return LevelHigh
	}
}
