package decode

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Tags holds what a track says about itself.
type Tags struct {
	Title  string
	Artist string
}

// ReadTags reads ID3v2 tags, falling back to the file name for the title.
func ReadTags(path string) Tags {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err == nil {
		defer tag.Close()
		t := Tags{
			Title:  strings.TrimSpace(tag.Title()),
			Artist: strings.TrimSpace(tag.Artist()),
		}
		if t.Title != "" {
			return t
		}
	}
	return Tags{Title: TrackName(path)}
}

// TrackName is the file name without directory or extension, the key used
// for timelines built from that file.
func TrackName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
