package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guidoenr/bassync/internal/analyzer"
)

// ErrRendererQuit is returned by Frame.Present when the display window was closed.
var ErrRendererQuit = errors.New("renderer closed")

type backend int

const (
	backendANSI backend = iota
	backendSDL
)

// View is everything one frame needs from the analysis side.
type View struct {
	Rows        [][]float64 // spectrogram history, oldest first
	Band        analyzer.BassBand
	State       analyzer.State
	FPS         float64
	Upcoming    analyzer.Level // timeline level at now+lead
	HasTimeline bool
	Source      string
}

// Frame contains the rendered lines and status text. Present is set when the
// frame must be pushed to a window instead of printed.
type Frame struct {
	Lines   []string
	Status  string
	Present func(status string) error
}

// Renderer draws a spectrogram waterfall with a bass level meter underneath.
type Renderer struct {
	width       int
	height      int
	bins        int
	palette     []rune
	paletteName string
	useANSI     bool
	mode        backend
	sdl         *sdlState

	statusBuilder strings.Builder
}

var (
	resetANSI       = "\x1b[0m"
	precomputedANSI [256]string
)

func init() {
	for i := range precomputedANSI {
		precomputedANSI[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
	}
}

// New creates a Renderer that spreads the lowest bins spectrum bins across
// the width.
func New(width, height, bins int, paletteName string, useANSI bool) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", width, height)
	}
	if bins <= 0 {
		return nil, fmt.Errorf("invalid bin count %d", bins)
	}
	r := &Renderer{
		width:   width,
		height:  height,
		bins:    bins,
		useANSI: useANSI,
	}
	r.SetPalette(paletteName)
	return r, nil
}

// SetPalette switches the glyph ramp.
func (r *Renderer) SetPalette(name string) {
	if name == "" {
		name = "default"
	}
	r.palette = Palette(name)
	r.paletteName = name
}

func (r *Renderer) PaletteName() string { return r.paletteName }

// Resize updates the framebuffer dimensions.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 || (width == r.width && height == r.height) {
		return
	}
	r.width = width
	r.height = height
	r.resizeSDL()
}

// EnableSDL switches output to an SDL window.
func (r *Renderer) EnableSDL() error {
	return r.initSDL(r.width, r.height)
}

// Close releases the SDL window if one was opened.
func (r *Renderer) Close() error {
	return r.closeSDL()
}

// Render draws one frame.
func (r *Renderer) Render(v View) Frame {
	if r.mode == backendSDL {
		return r.renderSDL(v)
	}
	if r.width <= 0 || r.height <= 0 {
		return Frame{}
	}

	specRows := r.height
	if specRows >= 3 {
		specRows -= 2
	}

	lines := make([]string, 0, r.height)
	for row := 0; row < specRows; row++ {
		// Newest snapshot on top.
		idx := len(v.Rows) - 1 - row
		if idx < 0 {
			lines = append(lines, strings.Repeat(" ", r.width))
			continue
		}
		lines = append(lines, r.waterfallLine(v.Rows[idx], v))
	}
	if specRows < r.height {
		lines = append(lines, r.bandLine(v.Band), r.meterLine(v.State))
	}

	return Frame{
		Lines:  lines,
		Status: r.buildStatus(v),
	}
}

// binAt maps a column to the spectrum bin it shows.
func (r *Renderer) binAt(col, available int) int {
	bins := r.bins
	if bins > available {
		bins = available
	}
	return clampInt(col*bins/r.width, 0, available-1)
}

// intensity maps a normalized magnitude to [0, 1]. The square root lifts
// quiet partials so the waterfall is not mostly empty.
func intensity(mag float64) float64 {
	return clamp01(math.Sqrt(math.Max(mag, 0)))
}

func (r *Renderer) waterfallLine(row []float64, v View) string {
	var b strings.Builder
	b.Grow(r.width * 8)
	lastColor := -1
	for x := 0; x < r.width; x++ {
		if len(row) == 0 {
			b.WriteByte(' ')
			continue
		}
		bin := r.binAt(x, len(row))
		val := intensity(row[bin])
		glyph := r.palette[clampInt(int(val*float64(len(r.palette)-1)+0.5), 0, len(r.palette)-1)]
		if r.useANSI {
			if fg := hsvToANSI(r.cellColor(bin, val, v)); fg != lastColor {
				b.WriteString(colorCode(fg))
				lastColor = fg
			}
		}
		b.WriteRune(glyph)
	}
	if r.useANSI {
		b.WriteString(resetANSI)
	}
	return b.String()
}

func (r *Renderer) cellColor(bin int, val float64, v View) (float64, float64, float64) {
	if bin >= v.Band.Start && bin <= v.Band.End {
		return levelHue(v.State.Level), 0.85, 0.35 + val*0.65
	}
	return 0.62 - val*0.45, 0.6, 0.25 + val*0.75
}

// bandLine marks the bass bins under the waterfall.
func (r *Renderer) bandLine(band analyzer.BassBand) string {
	line := []rune(strings.Repeat("─", r.width))
	for x := range line {
		bin := r.binAt(x, r.bins)
		if bin >= band.Start && bin <= band.End {
			line[x] = '▔'
		}
	}
	label := []rune(" bass ")
	for i, ch := range label {
		if i < len(line) {
			line[i] = ch
		}
	}
	return dimStyle.Render(string(line))
}

// meterLine draws the energy bar with '|' at each threshold.
func (r *Renderer) meterLine(s analyzer.State) string {
	width := r.width - 2
	if width < 4 {
		width = 4
	}
	cfg := s.Config
	top := math.Max(cfg.ThresholdHigh*1.5, s.Energy)
	if top <= 0 {
		top = 1
	}
	pos := func(e float64) int {
		return clampInt(int(e/top*float64(width)), 0, width-1)
	}

	bar := []rune(strings.Repeat("·", width))
	fill := int(s.Energy / top * float64(width))
	for i := 0; i < fill && i < width; i++ {
		bar[i] = '█'
	}
	for _, t := range []float64{cfg.ThresholdLow, cfg.ThresholdMedium, cfg.ThresholdHigh} {
		bar[pos(t)] = '|'
	}

	body := string(bar)
	if r.useANSI {
		body = colorCode(hsvToANSI(levelHue(s.Level), 0.9, 1)) + body + resetANSI
	}
	return "[" + body + "]"
}

func (r *Renderer) buildStatus(v View) string {
	s := v.State
	b := &r.statusBuilder
	b.Reset()
	b.Grow(160)
	b.WriteString(Badge(s.Level))
	b.WriteString(" energy ")
	appendFloat(b, s.Energy, 3)
	b.WriteString(" | thr ")
	appendFloat(b, s.Config.ThresholdLow, 3)
	b.WriteByte('/')
	appendFloat(b, s.Config.ThresholdMedium, 3)
	b.WriteByte('/')
	appendFloat(b, s.Config.ThresholdHigh, 3)
	if s.Config.PeakEnabled {
		b.WriteString(" | ")
		b.WriteString(peakStyle.Render("peaks"))
		b.WriteString(" +")
		appendFloat(b, s.Config.PeakThreshold*100, 0)
		b.WriteByte('%')
	} else {
		b.WriteString(" | peaks off")
	}
	b.WriteString(" | events ")
	b.WriteString(strconv.Itoa(s.EventCount))
	b.WriteString(" peaks ")
	b.WriteString(strconv.Itoa(s.PeakCount))
	if v.HasTimeline {
		b.WriteString(" | next ")
		b.WriteString(v.Upcoming.String())
	}
	b.WriteString(" | fps ")
	appendFloat(b, v.FPS, 1)
	if v.Source != "" {
		b.WriteString(" | ")
		b.WriteString(v.Source)
	}
	return b.String()
}

func colorCode(index int) string {
	return precomputedANSI[clampInt(index, 0, len(precomputedANSI)-1)]
}

func hsvToANSI(h, s, v float64) int {
	r, g, b := hsvToRGB(h, s, v)
	return rgbToANSI(r, g, b)
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = clamp01(h)
	s = clamp01(s)
	v = clamp01(v)

	if s == 0 {
		return v, v, v
	}

	hv := h * 6.0
	i := math.Floor(hv)
	f := hv - i
	p := v * (1.0 - s)
	q := v * (1.0 - s*f)
	t := v * (1.0 - s*(1.0-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func rgbToANSI(r, g, b float64) int {
	r = clamp01(r)
	g = clamp01(g)
	b = clamp01(b)

	// Grayscale ramp for unsaturated colors
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		gray := int(clampFloat(math.Round(r*23), 0, 23))
		return 232 + gray
	}

	ri := int(clampFloat(r*5+0.5, 0, 5))
	gi := int(clampFloat(g*5+0.5, 0, 5))
	bi := int(clampFloat(b*5+0.5, 0, 5))

	return 16 + 36*ri + 6*gi + bi
}

func clamp01(v float64) float64 {
	return clampFloat(v, 0, 1)
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func appendFloat(builder *strings.Builder, value float64, precision int) {
	var buf [32]byte
	b := strconv.AppendFloat(buf[:0], value, 'f', precision, 64)
	builder.Write(b)
}
