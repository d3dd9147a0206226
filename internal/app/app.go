package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/guidoenr/bassync/internal/analyzer"
	"github.com/guidoenr/bassync/internal/audio"
	"github.com/guidoenr/bassync/internal/config"
	"github.com/guidoenr/bassync/internal/decode"
	"github.com/guidoenr/bassync/internal/dsp"
	"github.com/guidoenr/bassync/internal/eventlog"
	"github.com/guidoenr/bassync/internal/render"
	"github.com/guidoenr/bassync/internal/timeline"
	"github.com/guidoenr/bassync/internal/web"
)

// Config configures an analysis session.
type Config struct {
	DeviceName   string
	File         string // play and analyze a file instead of capturing
	DisableAudio bool   // use the synthetic generator

	Width         int
	Height        int
	TargetFPS     float64
	FFTSize       int
	HistorySize   int
	DisplayMaxHz  float64
	Headless      bool // no display; records are printed through Log
	ShowStatusBar bool
	UseANSI       bool
	UseSDL        bool
	Palette       string

	ConfigPath       string
	LogPath          string
	Timeline         *timeline.Timeline
	AnticipationLead float64
	WebAddr          string
	ProfilePath      string

	Log   *log.Logger
	Sinks []eventlog.Sink
}

type control func() error

var (
	errQuit         = errors.New("quit requested")
	errTrackDone    = errors.New("track finished")
	errControlsFull = errors.New("control queue full")
)

const (
	defaultSampleRate   = 44_100
	defaultDisplayMaxHz = 1000
	statusInterval      = 500 * time.Millisecond
)

// App owns one audio source and runs it through the analyzer, the event
// sinks and the display.
type App struct {
	cfg      Config
	log      *log.Logger
	source   string
	buffer   *audio.SampleBuffer
	window   []float32
	analyzer *analyzer.Analyzer

	capture      *audio.Capture
	playback     *audio.Playback
	releaseAudio func()
	fake         *fakeGenerator

	eventLog *eventlog.File
	sinks    eventlog.Multi
	web      *web.Server
	renderer *render.Renderer
	profiler *profiler
	controls chan control

	mu     sync.RWMutex
	status web.Status

	last         time.Time
	fps          float64
	audioTime    float64
	width        int
	height       int
	renderHeight int
}

// New opens the configured source and builds the pipeline around it.
func New(cfg Config) (a *App, err error) {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 60
	}
	if cfg.FFTSize == 0 {
		cfg.FFTSize = 2048
	}
	if !dsp.IsPowerOfTwo(cfg.FFTSize) {
		return nil, fmt.Errorf("fft size: %w: got %d", dsp.ErrNotPowerOfTwo, cfg.FFTSize)
	}
	if cfg.DisplayMaxHz <= 0 {
		cfg.DisplayMaxHz = defaultDisplayMaxHz
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "", 0)
	}
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.Height <= 0 {
		cfg.Height = 24
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = config.DefaultPath
	}

	a = &App{
		cfg:      cfg,
		log:      cfg.Log,
		buffer:   audio.NewSampleBuffer(cfg.FFTSize),
		window:   make([]float32, cfg.FFTSize),
		controls: make(chan control, 32),
		width:    cfg.Width,
		height:   cfg.Height,
	}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	bass, loadErr := config.Load(cfg.ConfigPath)
	if loadErr != nil {
		a.log.Printf("warning: config %s: %v", cfg.ConfigPath, loadErr)
	}

	sampleRate, err := a.openSource()
	if err != nil {
		return a, err
	}

	a.analyzer, err = analyzer.New(analyzer.Config{
		SampleRate:  sampleRate,
		FFTSize:     cfg.FFTSize,
		HistorySize: cfg.HistorySize,
		Bass:        bass,
	})
	if err != nil {
		return a, err
	}

	if cfg.LogPath != "" {
		a.eventLog, err = eventlog.Open(cfg.LogPath, time.Now())
		if err != nil {
			return a, err
		}
		if backup := a.eventLog.Backup(); backup != "" {
			a.log.Printf("previous event log moved to %s", backup)
		}
		a.sinks = append(a.sinks, a.eventLog)
	}
	if cfg.Headless {
		a.sinks = append(a.sinks, eventlog.Console{Log: a.log})
	}
	a.sinks = append(a.sinks, cfg.Sinks...)
	if cfg.WebAddr != "" {
		a.web = web.NewServer(a, a.log, statusInterval)
		a.sinks = append(a.sinks, a.web)
	}

	if !cfg.Headless {
		a.renderHeight = a.statusRows(cfg.Height)
		bins := int(cfg.DisplayMaxHz * float64(cfg.FFTSize) / sampleRate)
		if half := cfg.FFTSize / 2; bins > half || bins <= 0 {
			bins = half
		}
		a.renderer, err = render.New(cfg.Width, a.renderHeight, bins, cfg.Palette, cfg.UseANSI)
		if err != nil {
			return a, err
		}
		if cfg.UseSDL {
			if err := a.renderer.EnableSDL(); err != nil {
				return a, fmt.Errorf("sdl: %w", err)
			}
		}
	}

	a.profiler = newProfiler(cfg.ProfilePath, a.log)
	a.last = time.Now()
	a.publish()
	return a, nil
}

// openSource starts the file, synthetic or capture source and returns its rate.
func (a *App) openSource() (float64, error) {
	switch {
	case a.cfg.File != "":
		track, err := decode.Open(a.cfg.File)
		if err != nil {
			return 0, err
		}
		if a.releaseAudio, err = audio.Acquire(); err != nil {
			return 0, err
		}
		if a.playback, err = audio.NewPlayback(track, 0, a.buffer); err != nil {
			return 0, err
		}
		a.source = "file=" + track.Title
		a.log.Printf("playing %q (%.1fs, %.0f Hz, %d ch)", track.Title, track.Duration(), track.SampleRate, track.Channels)
		return track.SampleRate, nil

	case a.cfg.DisableAudio:
		a.fake = newFakeGenerator(defaultSampleRate, time.Now().UnixNano())
		a.source = "synthetic"
		a.log.Println("audio disabled, using synthetic generator")
		return defaultSampleRate, nil

	default:
		var err error
		if a.releaseAudio, err = audio.Acquire(); err != nil {
			return 0, err
		}
		a.capture, err = audio.NewCapture(audio.Config{DeviceName: a.cfg.DeviceName, Channels: 2}, a.buffer)
		if err != nil {
			return 0, fmt.Errorf("audio capture: %w", err)
		}
		a.source = "mic"
		if info := a.capture.Device(); info != nil {
			a.source = "mic=" + info.Name
			a.log.Printf("audio capture started on \"%s\" @ %.0f Hz", info.Name, a.capture.SampleRate())
		}
		return a.capture.SampleRate(), nil
	}
}

// Run drives the frame loop until ctx is done, the user quits, or a played
// file ends.
func (a *App) Run(ctx context.Context) error {
	frameDuration := time.Duration(float64(time.Second) / a.cfg.TargetFPS)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.web != nil {
		go func() {
			if err := a.web.ListenAndServe(ctx, a.cfg.WebAddr); err != nil {
				a.log.Printf("[web] %v", err)
			}
		}()
	}

	if a.terminalOutput() {
		enterAltScreen()
		clearScreen()
		hideCursor()
		defer func() {
			showCursor()
			exitAltScreen()
		}()
		a.ensureDimensions()
	}

	a.startInputListener(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-a.controls:
			if err := a.runControl(c); err != nil {
				return err
			}
		case now := <-ticker.C:
			delta := now.Sub(a.last).Seconds()
			if delta <= 0 {
				delta = 1.0 / a.cfg.TargetFPS
			}
			a.last = now
			err := a.step(delta)
			if errors.Is(err, errQuit) {
				return nil
			}
			if errors.Is(err, errTrackDone) {
				a.log.Printf("track finished at %.2fs", a.playback.Position())
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

// runControl applies a queued control; only quitting ends the loop.
func (a *App) runControl(c control) error {
	err := c()
	if errors.Is(err, errQuit) {
		return errQuit
	}
	if err != nil {
		a.log.Printf("control: %v", err)
	}
	return nil
}

// Close releases held resources.
func (a *App) Close() error {
	var errs []error
	if a.capture != nil {
		errs = append(errs, a.capture.Close())
		a.capture = nil
	}
	if a.playback != nil {
		errs = append(errs, a.playback.Close())
		a.playback = nil
	}
	if a.releaseAudio != nil {
		a.releaseAudio()
		a.releaseAudio = nil
	}
	if a.eventLog != nil {
		errs = append(errs, a.eventLog.Close())
		a.eventLog = nil
	}
	if a.renderer != nil {
		errs = append(errs, a.renderer.Close())
	}
	errs = append(errs, a.profiler.Close())
	a.profiler = nil
	return errors.Join(errs...)
}

// step advances the session by delta seconds of wall time.
func (a *App) step(delta float64) error {
	a.profiler.beginFrame()
	a.fps = 1.0 / delta

	if a.fake != nil {
		a.fake.Fill(a.buffer, delta)
	}
	if stamp, ok := a.buffer.Drain(a.window); ok {
		a.audioTime = float64(stamp) / a.analyzer.SampleRate()
		frame := a.analyzer.Process(a.window, a.audioTime)
		a.profiler.mark("analyze")
		for _, ev := range frame.Events {
			if err := a.sinks.Write(ev); err != nil {
				a.log.Printf("event sink: %v", err)
			}
		}
		a.profiler.mark("sinks")
	}
	a.publish()

	if a.renderer != nil {
		if a.terminalOutput() {
			a.ensureDimensions()
		}
		if err := a.draw(); err != nil {
			return err
		}
		a.profiler.mark("render")
	}
	a.profiler.endFrame()

	if a.playback != nil && a.playback.Finished() {
		return errTrackDone
	}
	return nil
}

func (a *App) upcoming() (analyzer.Level, bool) {
	if a.cfg.Timeline == nil {
		return analyzer.LevelNone, false
	}
	return a.cfg.Timeline.LevelWithAnticipation(a.audioTime, a.cfg.AnticipationLead), true
}

func (a *App) draw() error {
	view := render.View{
		Rows:   a.analyzer.History().Rows(),
		Band:   a.analyzer.Band(),
		State:  a.analyzer.State(),
		FPS:    a.fps,
		Source: a.source,
	}
	view.Upcoming, view.HasTimeline = a.upcoming()

	frame := a.renderer.Render(view)
	if frame.Present != nil {
		if err := frame.Present(frame.Status); err != nil {
			if errors.Is(err, render.ErrRendererQuit) {
				return errQuit
			}
			return err
		}
		return nil
	}

	moveCursorHome()
	for _, line := range frame.Lines {
		fmt.Println(line)
	}
	if a.cfg.ShowStatusBar {
		fmt.Print(statusBar(frame.Status, a.width))
	}
	return nil
}

// publish refreshes the snapshot read by the web server.
func (a *App) publish() {
	st := web.Status{
		State:  a.analyzer.State(),
		Time:   a.audioTime,
		FPS:    a.fps,
		Source: a.source,
	}
	if lvl, ok := a.upcoming(); ok {
		st.Upcoming = &lvl
	}
	a.mu.Lock()
	a.status = st
	a.mu.Unlock()
}

// Status returns the last published snapshot.
func (a *App) Status() web.Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// UpdateConfig queues apply for the frame loop.
func (a *App) UpdateConfig(apply func(*config.BassConfig)) error {
	return a.enqueue(a.configControl(apply))
}

// SaveConfig writes the published config to the config file.
func (a *App) SaveConfig() (string, error) {
	cfg := a.Status().State.Config
	if err := config.Save(a.cfg.ConfigPath, cfg); err != nil {
		return "", err
	}
	return a.cfg.ConfigPath, nil
}

// Timeline returns the loaded timeline, or nil.
func (a *App) Timeline() *timeline.Timeline { return a.cfg.Timeline }

func (a *App) enqueue(c control) error {
	select {
	case a.controls <- c:
		return nil
	default:
		return errControlsFull
	}
}

func (a *App) configControl(apply func(*config.BassConfig)) control {
	return func() error {
		cfg := a.analyzer.Config()
		apply(&cfg)
		a.analyzer.SetConfig(cfg)
		if err := cfg.Validate(); err != nil {
			a.log.Printf("warning: %v", err)
		}
		peaks := "off"
		if cfg.PeakEnabled {
			peaks = fmt.Sprintf("+%.0f%%", cfg.PeakThreshold*100)
		}
		a.log.Printf("config: low=%.3f medium=%.3f high=%.3f peaks=%s",
			cfg.ThresholdLow, cfg.ThresholdMedium, cfg.ThresholdHigh, peaks)
		a.publish()
		return nil
	}
}

func (a *App) terminalOutput() bool {
	return a.renderer != nil && !a.cfg.UseSDL
}

func (a *App) statusRows(height int) int {
	if a.cfg.ShowStatusBar && height > 1 {
		return height - 1
	}
	return height
}

func (a *App) ensureDimensions() {
	fd := int(os.Stdout.Fd())
	if fd < 0 {
		return
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return
	}
	renderHeight := a.statusRows(h)
	if w == a.width && h == a.height && renderHeight == a.renderHeight {
		return
	}
	a.width = w
	a.height = h
	a.renderHeight = renderHeight
	a.renderer.Resize(w, renderHeight)
}

// statusBar fits text to exactly width cells, ANSI styling included.
func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	text = lipgloss.NewStyle().MaxWidth(width).Render(text)
	if pad := width - lipgloss.Width(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	return text
}

func clearScreen() {
	fmt.Print("\x1b[2J")
	moveCursorHome()
}

func moveCursorHome() {
	fmt.Print("\x1b[H")
}

func hideCursor() {
	fmt.Print("\x1b[?25l")
}

func showCursor() {
	fmt.Print("\x1b[?25h")
}

func enterAltScreen() {
	fmt.Print("\x1b[?1049h")
}

func exitAltScreen() {
	fmt.Print("\x1b[?1049l\x1b[0m")
}
