// Package telemetry builds the application logger. The terminal belongs to
// the presenter, so log output goes to a file.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New opens path for appending and returns a logger writing to it. An empty
// path yields a logger that discards everything.
func New(path, level string) (*log.Logger, io.Closer, error) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}
	if path == "" {
		return log.NewWithOptions(io.Discard, log.Options{Level: lvl}), nopCloser{}, nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		Prefix:          "deckview",
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.StampMilli,
	})
	return logger, f, nil
}
