package eventlog

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guidoenr/bassync/internal/analyzer"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		ev   analyzer.Event
		want string
	}{
		{
			analyzer.Event{Kind: analyzer.EventStart, Time: 12.346, Level: analyzer.LevelMedium, Energy: 0.2134},
			"[12.35] Bass START - Level: MEDIUM (Energy: 0.213)",
		},
		{
			analyzer.Event{Kind: analyzer.EventChange, Time: 13, Level: analyzer.LevelHigh, Energy: 0.4},
			"[13.00] Bass CHANGE - Level: HIGH (Energy: 0.400)",
		},
		{
			analyzer.Event{Kind: analyzer.EventEnd, Time: 15.5, Level: analyzer.LevelNone, Energy: 0.012, Duration: 3.25},
			"[15.50] Bass END - Level: NONE (Energy: 0.012) - Duration: 3.25s",
		},
		{
			analyzer.Event{Kind: analyzer.EventPeak, Time: 16, Level: analyzer.LevelHigh, Energy: 0.412, Increase: 0.38},
			"[16.00] PEAK detected - Energy: 0.412 (increase: +38.0%)",
		},
	}
	for _, tc := range cases {
		if got := Format(tc.ev); got != tc.want {
			t.Fatalf("Format=%q want=%q", got, tc.want)
		}
	}
}

func TestOpenRotatesExistingLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bass_events.log")
	if err := os.WriteFile(path, []byte("old session\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)

	l, err := Open(path, now)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	wantBackup := filepath.Join(dir, "bass_events_backup_20250102_150405.log")
	if l.Backup() != wantBackup {
		t.Fatalf("backup=%q want=%q", l.Backup(), wantBackup)
	}
	old, err := os.ReadFile(wantBackup)
	if err != nil || string(old) != "old session\n" {
		t.Fatalf("backup content=%q err=%v", old, err)
	}

	if err := l.Write(analyzer.Event{Kind: analyzer.EventStart, Time: 1, Level: analyzer.LevelLow, Energy: 0.06}); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "#") || lines[1] != "[1.00] Bass START - Level: LOW (Energy: 0.060)" {
		t.Fatalf("unexpected log: %q", data)
	}
	if err := l.Write(analyzer.Event{}); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("write after close err=%v", err)
	}
}

func TestOpenWithoutExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	l, err := Open(path, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	if l.Backup() != "" {
		t.Fatalf("unexpected backup %q", l.Backup())
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	m := Multi{
		Console{Log: log.New(&buf, "", 0)},
		SinkFunc(func(analyzer.Event) error { return boom }),
		nil,
	}
	err := m.Write(analyzer.Event{Kind: analyzer.EventStart, Level: analyzer.LevelLow})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
	if !strings.Contains(buf.String(), "Bass START") {
		t.Fatalf("console missed record: %q", buf.String())
	}
}
