package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures the optional rotating log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return newLogger(os.Stdout, level)
}

// NewWithFile logs to stdout and, when opts.Path is set, to a rotating file.
// The returned closer flushes the file sink.
func NewWithFile(level string, opts FileOptions) (*slog.Logger, io.Closer) {
	if opts.Path == "" {
		return New(level), nopCloser{}
	}
	file := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	return newLogger(io.MultiWriter(os.Stdout, file), level), file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
