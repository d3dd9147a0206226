package eventlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/guidoenr/bassync/internal/analyzer"
)

// DefaultPath is the event log of the live tool.
const DefaultPath = "bass_events.log"

// File is an append-only event log.
type File struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	backup string
}

// Open moves an existing log at path aside to a dated backup and starts a
// fresh one with a session header. now stamps both the backup name and header.
func Open(path string, now time.Time) (*File, error) {
	backup, err := rotate(path, now)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	l := &File{file: f, path: path, backup: backup}
	if _, err := fmt.Fprintf(f, "# Bass event log - session started %s\n", now.Format("2006-01-02 15:04:05")); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write event log header: %w", err)
	}
	return l, nil
}

// BackupName returns where Open moves an existing log, e.g.
// bass_events.log -> bass_events_backup_20250102_150405.log.
func BackupName(path string, now time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return stem + "_backup_" + now.Format("20060102_150405") + ext
}

func rotate(path string, now time.Time) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat event log: %w", err)
	}
	backup := BackupName(path, now)
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("backup event log: %w", err)
	}
	return backup, nil
}

// Write appends one formatted record.
func (l *File) Write(ev analyzer.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return os.ErrClosed
	}
	_, err := fmt.Fprintln(l.file, Format(ev))
	return err
}

// Path returns the log location.
func (l *File) Path() string { return l.path }

// Backup returns the previous log's new name, or "" if there was none.
func (l *File) Backup() string { return l.backup }

// Close flushes and closes the log.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
