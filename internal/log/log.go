// Package log provides structured logging for go-armband.
// It wraps slog so every record carries the app name, and packages tag
// their records with a component.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// App is attached to every record as the "app" attribute.
const App = "armband"

var (
	logger *slog.Logger
	once   sync.Once
)

// ParseLevel maps a level name to a slog level.
// Valid levels: "debug", "info", "warn", "error". Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// JSONOutput reports whether records should be written as JSON.
// ARMBAND_LOG_FORMAT ("json" or "text") wins over GO_ENV=production.
func JSONOutput() bool {
	switch strings.ToLower(os.Getenv("ARMBAND_LOG_FORMAT")) {
	case "json":
		return true
	case "text":
		return false
	}
	return os.Getenv("GO_ENV") == "production"
}

// New builds a logger writing to w with the app attribute attached.
func New(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("app", App)
}

// Init initializes the global logger with the specified level. Only the
// first call has an effect.
func Init(level string) {
	once.Do(func() {
		logger = New(os.Stdout, level, JSONOutput())
		slog.SetDefault(logger)
	})
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Component returns the global logger tagged with a component name
// ("webcam", "recorder", ...). Call it after Init, not from package vars.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
