// Package applog configures the process logger. Journals hold the data;
// this logger only reports on the process around them.
package applog

import (
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns the application logger. With a path, everything from debug
// up goes to a size-rotated JSON file; without one, only warnings reach
// stderr as text, keeping interactive output clean.
func New(path string) *slog.Logger {
	if path == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // Megabytes
		MaxBackups: 5,  // Files
		MaxAge:     30, // Days
		Compress:   true,
	}
	return slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
