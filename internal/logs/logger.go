package logs

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the application logger: structured JSON to a rotated file,
// plus human-readable text on stderr when verbose. The returned closer owns
// the log file.
func NewLogger(path string, verbose bool) (*slog.Logger, io.Closer) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}

	handlers := []slog.Handler{
		slog.NewJSONHandler(lj, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	if verbose {
		handlers = append(handlers,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slogmulti.Fanout(handlers...)), lj
}

// Discard returns a logger that drops everything, for tests and for
// commands that run before the workspace exists.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
