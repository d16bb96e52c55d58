package logs

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// FileLogger returns a JSON logger that appends to the given log file.
func FileLogger(path string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return slog.New(slog.NewJSONHandler(f, opts)), nil
}

func ConsoleLogger(level slog.Level) *slog.Logger {
	w := os.Stderr

	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	// set global logger with custom options
	slog.SetDefault(logger)
	return logger
}
