package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/guidoenr/bassync/internal/analyzer"
)

var (
	badgeBase = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	levelBadges = map[analyzer.Level]lipgloss.Style{
		analyzer.LevelNone:   badgeBase.Foreground(lipgloss.Color("#AAAAAA")).Background(lipgloss.Color("#333333")),
		analyzer.LevelLow:    badgeBase.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#5FD75F")),
		analyzer.LevelMedium: badgeBase.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#FFD75F")),
		analyzer.LevelHigh:   badgeBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#D70000")),
	}

	peakStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5FFF"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#888888"})
)

// Badge renders a level as a colored label.
func Badge(level analyzer.Level) string {
	style, ok := levelBadges[level]
	if !ok {
		style = badgeBase
	}
	return style.Render(level.String())
}

// levelHue maps levels to the hue used for meter fill and bass columns.
func levelHue(level analyzer.Level) float64 {
	switch level {
	case analyzer.LevelLow:
		return 0.33
	case analyzer.LevelMedium:
		return 0.14
	case analyzer.LevelHigh:
		return 0.0
	default:
		return 0.6
	}
}
