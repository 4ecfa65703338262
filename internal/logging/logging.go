// Package logging sets up the file logger. The terminal belongs to the UI,
// so log records never go to stdout or stderr.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const fileName = "jjreview.log"

type Options struct {
	// File overrides the default log location.
	File  string
	Debug bool
}

// DefaultPath is jjreview.log under $XDG_STATE_HOME/jjreview, falling back
// to ~/.local/state/jjreview.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "jjreview", fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "jjreview", fileName), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New opens the log file and returns a logger writing to it. When the file
// cannot be opened the logger discards everything and the error is returned
// so the caller can report it once the UI is gone.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	path := opts.File
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return zerolog.Nop(), nopCloser{}, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	return newLogger(f, opts.Debug), f, nil
}

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
