package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/guidoenr/bassync/internal/analyzer"
	"github.com/guidoenr/bassync/internal/app"
	"github.com/guidoenr/bassync/internal/config"
	"github.com/guidoenr/bassync/internal/decode"
	"github.com/guidoenr/bassync/internal/eventlog"
	"github.com/guidoenr/bassync/internal/timeline"
)

func main() {
	var (
		in          = flag.String("in", "", "Audio file to analyze (mp3|wav|flac|ogg)")
		out         = flag.String("out", "", "Write the timeline JSON here (default stdout)")
		configPath  = flag.String("config", config.DefaultPath, "Bass threshold config file")
		fftSize     = flag.Int("fft-size", 2048, "FFT window size (power of two)")
		mergeGap    = flag.Float64("merge-gap", 0.25, "Join intervals separated by less than this many seconds")
		minDuration = flag.Float64("min-duration", 0.5, "Drop intervals shorter than this many seconds")
		verbose     = flag.Bool("v", false, "Print every bass record while analyzing")
		name        = flag.String("timeline", timeline.DefaultTrack, "Embedded timeline name or JSON file to query")
		at          = flag.Float64("at", -1, "Query the level at this time in seconds")
		lead        = flag.Float64("lead", 0, "Anticipation lead for -at queries")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[bassmap] ", 0)

	if *in != "" {
		bass, err := config.Load(*configPath)
		if err != nil {
			logger.Printf("warning: config %s: %v", *configPath, err)
		}
		cfg := app.OfflineConfig{
			Analyzer:    analyzer.Config{FFTSize: *fftSize, Bass: bass},
			MergeGap:    *mergeGap,
			MinDuration: *minDuration,
		}
		if *verbose {
			cfg.Sink = eventlog.Console{Log: log.New(os.Stderr, "", 0)}
		}
		if err := analyze(*in, *out, cfg, logger); err != nil {
			logger.Printf("%v", err)
			os.Exit(1)
		}
		return
	}

	tl, err := loadTimeline(*name)
	if err != nil {
		logger.Fatalf("timeline: %v", err)
	}
	if *at >= 0 {
		query(os.Stdout, tl, *at, *lead)
		return
	}
	if err := list(os.Stdout, tl); err != nil {
		logger.Fatalf("%v", err)
	}
}

func analyze(in, out string, cfg app.OfflineConfig, logger *log.Logger) error {
	track, err := decode.Open(in)
	if err != nil {
		if errors.Is(err, decode.ErrEmptyStream) {
			return fmt.Errorf("%s: %w", in, err)
		}
		return err
	}
	if track.Title == "" {
		track.Title = decode.TrackName(in)
	}
	logger.Printf("analyzing %q: %.2fs at %.0f Hz", track.Title, track.Duration(), track.SampleRate)

	tl, err := app.AnalyzeTrack(track, cfg)
	if err != nil {
		return err
	}
	logger.Printf("found %d bass events", tl.Len())

	if out == "" {
		return tl.Write(os.Stdout)
	}
	if err := tl.SaveFile(out); err != nil {
		return err
	}
	logger.Printf("timeline written to %s", out)
	return nil
}

func query(w io.Writer, tl *timeline.Timeline, at, lead float64) {
	fmt.Fprintf(w, "%s @ %.2fs: %s", tl.Track(), at, tl.LevelAt(at))
	if lead > 0 {
		fmt.Fprintf(w, " (with %.2fs lead: %s)", lead, tl.LevelWithAnticipation(at, lead))
	}
	fmt.Fprintln(w)
	if ev, ok := tl.CurrentEvent(at); ok {
		fmt.Fprintf(w, "  in event %.2f-%.2f %s energy %.3f\n", ev.Start, ev.End, ev.Level, ev.Energy)
	}
}

func list(w io.Writer, tl *timeline.Timeline) error {
	fmt.Fprintf(w, "%s: %d events over %.2fs\n\n", tl.Track(), tl.Len(), tl.Duration())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tDURATION\tLEVEL\tENERGY")
	for _, ev := range tl.Events() {
		fmt.Fprintf(tw, "%.2f\t%.2f\t%.2f\t%s\t%.3f\n", ev.Start, ev.End, ev.Duration, ev.Level, ev.Energy)
	}
	return tw.Flush()
}

// loadTimeline accepts an embedded track name or a JSON file path.
func loadTimeline(name string) (*timeline.Timeline, error) {
	if _, err := os.Stat(name); err == nil {
		return timeline.LoadFile(name)
	}
	return timeline.Embedded(name)
}
