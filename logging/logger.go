// Package logging builds the leveled slog loggers used across busline and a
// JSONL writer for simulation event traces.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LevelTrace sits below Debug and enables per-tick output.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps "info", "debug", "trace" (any case) to a slog level.
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything. Tests use it to keep output quiet.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDefault returns l, or slog.Default() when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// TraceWriter appends one JSON object per line. A nil TraceWriter is valid and
// every method on it is a no-op.
type TraceWriter struct {
	mu   sync.Mutex
	w    io.Writer
	file *os.File
}

// NewTraceFile opens path for append, creating parent directories.
func NewTraceFile(path string) (*TraceWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &TraceWriter{w: f, file: f}, nil
}

func NewTraceWriter(w io.Writer) *TraceWriter {
	return &TraceWriter{w: w}
}

// Write encodes entry as a single line. The caller's map is not mutated.
func (tw *TraceWriter) Write(entry map[string]any) error {
	if tw == nil || tw.w == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tw.mu.Lock()
	defer tw.mu.Unlock()
	_, err = tw.w.Write(data)
	return err
}

func (tw *TraceWriter) Close() error {
	if tw == nil || tw.file == nil {
		return nil
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()
	err := tw.file.Close()
	tw.file = nil
	tw.w = nil
	return err
}
