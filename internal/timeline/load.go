package timeline

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed tracks/*.json
var tracksFS embed.FS

// DefaultTrack is the track shipped with the game.
const DefaultTrack = "stage1"

type document struct {
	Track    string      `json:"track"`
	Duration float64     `json:"duration"`
	Events   []BassEvent `json:"events"`
}

// Default returns the embedded timeline for DefaultTrack.
func Default() (*Timeline, error) {
	return Embedded(DefaultTrack)
}

// Embedded loads a timeline shipped in the binary by track name.
func Embedded(name string) (*Timeline, error) {
	f, err := tracksFS.Open(path.Join("tracks", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("embedded track %q: %w", name, err)
	}
	defer f.Close()
	return Load(f)
}

// EmbeddedTracks lists the embedded track names.
func EmbeddedTracks() []string {
	entries, err := tracksFS.ReadDir("tracks")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// Load decodes and validates a JSON timeline.
func Load(r io.Reader) (*Timeline, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	return New(doc.Track, doc.Duration, doc.Events)
}

// LoadFile loads a JSON timeline from disk.
func LoadFile(name string) (*Timeline, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open timeline: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Write encodes the timeline as indented JSON.
func (t *Timeline) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{Track: t.track, Duration: t.duration, Events: t.events})
}

// SaveFile writes the timeline to name.
func (t *Timeline) SaveFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create timeline: %w", err)
	}
	if err := t.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write timeline: %w", err)
	}
	return f.Close()
}
