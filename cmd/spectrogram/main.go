package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/guidoenr/bassync/internal/app"
	"github.com/guidoenr/bassync/internal/audio"
	"github.com/guidoenr/bassync/internal/config"
	"github.com/guidoenr/bassync/internal/decode"
	"github.com/guidoenr/bassync/internal/eventlog"
	"github.com/guidoenr/bassync/internal/render"
	"github.com/guidoenr/bassync/internal/timeline"
)

func main() {
	var (
		deviceName  = flag.String("audio-device", "", "Optional PortAudio input device name (substring match)")
		file        = flag.String("file", "", "Play and analyze an audio file (mp3|wav|flac|ogg) instead of capturing")
		noAudio     = flag.Bool("no-audio", false, "Run with synthetic audio (for testing)")
		width       = flag.Int("width", 80, "Frame width")
		height      = flag.Int("height", 24, "Frame height")
		targetFPS   = flag.Float64("fps", 60, "Target frames per second")
		fftSize     = flag.Int("fft-size", 2048, "FFT window size (power of two)")
		history     = flag.Int("history", 128, "Spectrogram history rows")
		maxHz       = flag.Float64("max-hz", 1000, "Highest frequency shown in the spectrogram")
		palette     = flag.String("palette", "default", "Glyph palette (default|block|dots)")
		headless    = flag.Bool("headless", false, "No display; print bass events instead")
		useSDL      = flag.Bool("sdl", false, "Draw the spectrogram in an SDL window (build with -tags sdl)")
		showStatus  = flag.Bool("status", true, "Display status bar")
		noColor     = flag.Bool("no-color", false, "Disable ANSI color output")
		configPath  = flag.String("config", config.DefaultPath, "Bass threshold config file")
		logPath     = flag.String("event-log", eventlog.DefaultPath, "Bass event log (empty to disable)")
		trackName   = flag.String("timeline", "", "Embedded timeline name or JSON file for anticipation")
		lead        = flag.Float64("lead", 0.5, "Timeline anticipation lead in seconds")
		webAddr     = flag.String("web", "", "Serve telemetry on this address, e.g. :8080")
		profilePath = flag.String("profile", "", "Append per-frame timings as CSV to this file")
		listDevs    = flag.Bool("list-audio-devices", false, "List available audio devices and exit")
		debug       = flag.Bool("debug", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bassync] ", log.LstdFlags)
	if !*debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}

	if *width <= 0 || *height <= 0 {
		logger.Fatalf("invalid dimensions: width=%d height=%d", *width, *height)
	}
	if *targetFPS <= 0 {
		logger.Fatalf("fps must be positive (got %.2f)", *targetFPS)
	}
	if *useSDL && !render.SupportsSDL() {
		logger.Fatalf("SDL backend not compiled in; rebuild with -tags sdl")
	}

	if *listDevs {
		if err := listDevices(); err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		return
	}

	if fd := int(os.Stdout.Fd()); fd >= 0 && !*useSDL {
		if w, h, err := term.GetSize(fd); err == nil {
			if w > 0 {
				*width = w
			}
			if h > 0 {
				*height = h
			}
		}
	}

	var tl *timeline.Timeline
	if *trackName != "" {
		var err error
		if tl, err = loadTimeline(*trackName); err != nil {
			logger.Fatalf("timeline: %v", err)
		}
		logger.Printf("timeline %q: %d events over %.2fs", tl.Track(), tl.Len(), tl.Duration())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Config{
		DeviceName:       *deviceName,
		File:             *file,
		DisableAudio:     *noAudio,
		Width:            *width,
		Height:           *height,
		TargetFPS:        *targetFPS,
		FFTSize:          *fftSize,
		HistorySize:      *history,
		DisplayMaxHz:     *maxHz,
		Headless:         *headless,
		ShowStatusBar:    *showStatus,
		UseANSI:          !*noColor,
		UseSDL:           *useSDL,
		Palette:          *palette,
		ConfigPath:       *configPath,
		LogPath:          *logPath,
		Timeline:         tl,
		AnticipationLead: *lead,
		WebAddr:          *webAddr,
		ProfilePath:      *profilePath,
		Log:              logger,
	})
	if err != nil {
		if errors.Is(err, decode.ErrEmptyStream) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *file, err)
			os.Exit(1)
		}
		logger.Fatalf("failed to start: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nExiting...")
			return
		}
		logger.Printf("runtime error: %v", err)
		return
	}

	time.Sleep(50 * time.Millisecond)
}

func listDevices() error {
	release, err := audio.Acquire()
	if err != nil {
		return err
	}
	defer release()

	devices, err := audio.ListDevices()
	if err != nil {
		return err
	}
	if err := audio.WriteDevices(os.Stdout, devices); err != nil {
		return err
	}
	if dev, err := audio.AutoDetectDevice(); err == nil && dev != nil {
		fmt.Printf("\nAuto-detected input: %s (%.0f Hz, %d channels)\n", dev.Name, dev.DefaultSampleRate, dev.MaxInputChannels)
	}
	return nil
}

// loadTimeline accepts an embedded track name or a JSON file path.
func loadTimeline(name string) (*timeline.Timeline, error) {
	if _, err := os.Stat(name); err == nil {
		return timeline.LoadFile(name)
	}
	return timeline.Embedded(name)
}
