package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// GetLogger returns a singleton slog logger instance. It writes to
// /tmp/tejax-debug.log when TEJAX_DEBUG is set and discards otherwise;
// a TUI cannot log to stdout.
func GetLogger() *slog.Logger {
	once.Do(func() {
		if os.Getenv("TEJAX_DEBUG") == "" {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			return
		}
		f, err := os.OpenFile("/tmp/tejax-debug.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			panic(err)
		}
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	})
	return logger
}
