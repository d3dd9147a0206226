package app

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/eiannone/keyboard"

	"github.com/guidoenr/bassync/internal/config"
	"github.com/guidoenr/bassync/internal/dsp"
	"github.com/guidoenr/bassync/internal/timeline"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	var out bytes.Buffer
	a, err := New(Config{
		DisableAudio: true,
		Headless:     true,
		ConfigPath:   filepath.Join(dir, "bass_config.txt"),
		LogPath:      filepath.Join(dir, "bass_events.log"),
		Log:          log.New(&out, "", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.fake = newFakeGenerator(defaultSampleRate, 1)
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

func TestNewRejectsBadFFTSize(t *testing.T) {
	_, err := New(Config{DisableAudio: true, Headless: true, FFTSize: 1000, Log: log.New(&bytes.Buffer{}, "", 0)})
	if !errors.Is(err, dsp.ErrNotPowerOfTwo) {
		t.Fatalf("err=%v want ErrNotPowerOfTwo", err)
	}
}

func TestSyntheticSessionLogsBursts(t *testing.T) {
	a, out := newTestApp(t)
	logPath := a.cfg.LogPath

	for i := 0; i < 9*60; i++ {
		if err := a.step(1.0 / 60); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	st := a.Status()
	if st.State.EventCount != 3 {
		t.Fatalf("event count=%d want one per burst", st.State.EventCount)
	}
	if st.Time < 8.5 || st.Time > 9 {
		t.Fatalf("audio time=%v", st.Time)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	for _, want := range []string{"# Bass event log", "Bass START - Level: LOW", "Level: HIGH", "Bass END - Level: NONE"} {
		if !strings.Contains(text, want) {
			t.Fatalf("event log missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(out.String(), "Bass START") {
		t.Fatalf("headless session should print records:\n%s", out.String())
	}
}

func TestConfigControlsApplyInLoop(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.UpdateConfig(func(c *config.BassConfig) { c.ThresholdLow = 0.07 }); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if got := a.Status().State.Config.ThresholdLow; got != 0.05 {
		t.Fatalf("config applied before the loop ran: %v", got)
	}
	if err := a.runControl(<-a.controls); err != nil {
		t.Fatalf("runControl: %v", err)
	}
	if got := a.Status().State.Config.ThresholdLow; got != 0.07 {
		t.Fatalf("threshold_low=%v want 0.07", got)
	}
}

func TestKeyBindings(t *testing.T) {
	a, _ := newTestApp(t)

	press := func(char rune, key keyboard.Key) error {
		t.Helper()
		b, ok := lookupKey(char, key)
		if !ok {
			t.Fatalf("no binding for %q/%v", char, key)
		}
		return a.runControl(a.bindingControl(b))
	}

	press('A', 0)
	press('x', 0)
	press('p', 0)
	press(']', 0)
	cfg := a.Status().State.Config
	if cfg.ThresholdLow != 0.06 || cfg.ThresholdMedium != 0.14 || !cfg.PeakEnabled || cfg.PeakThreshold != 0.25 {
		t.Fatalf("config after keys: %+v", cfg)
	}

	press('w', 0)
	saved, err := config.Load(a.cfg.ConfigPath)
	if err != nil {
		t.Fatalf("Load saved: %v", err)
	}
	if saved != cfg {
		t.Fatalf("saved=%+v want %+v", saved, cfg)
	}

	if err := press('q', 0); !errors.Is(err, errQuit) {
		t.Fatalf("q: err=%v want errQuit", err)
	}
	if err := press(0, keyboard.KeyEsc); !errors.Is(err, errQuit) {
		t.Fatalf("esc: err=%v want errQuit", err)
	}
	if _, ok := lookupKey('m', 0); ok {
		t.Fatalf("unbound key matched")
	}
}

func TestControlQueueFull(t *testing.T) {
	a, _ := newTestApp(t)
	noop := func(*config.BassConfig) {}
	for i := 0; i < cap(a.controls); i++ {
		if err := a.UpdateConfig(noop); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := a.UpdateConfig(noop); !errors.Is(err, errControlsFull) {
		t.Fatalf("err=%v want errControlsFull", err)
	}
}

func TestStatusCarriesTimeline(t *testing.T) {
	tl, err := timeline.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	a, _ := newTestApp(t)
	a.cfg.Timeline = tl
	a.cfg.AnticipationLead = 5
	a.audioTime = 96
	a.publish()

	st := a.Status()
	if st.Upcoming == nil || st.Upcoming.String() != "HIGH" {
		t.Fatalf("upcoming=%v", st.Upcoming)
	}
	if a.Timeline() != tl {
		t.Fatalf("Timeline() did not return the loaded timeline")
	}
}

func TestStatusBar(t *testing.T) {
	if got := statusBar("abc", 5); got != "abc  " {
		t.Fatalf("statusBar=%q", got)
	}
	long := strings.Repeat("x", 40)
	if w := lipgloss.Width(statusBar(long, 10)); w != 10 {
		t.Fatalf("width=%d want 10", w)
	}
}
