package scanner

import (
	"io"
	"log/slog"
	"os"
)

// DebugEnv enables debug logging for scanners built without WithLogger.
const DebugEnv = "MARKDOC_DEBUG_SCANNER"

// newDefaultLogger builds the scanner's stderr logger. The level is Info
// unless DebugEnv is set.
func newDefaultLogger() *slog.Logger {
	return NewLogger(os.Stderr, os.Getenv(DebugEnv) != "")
}

// NewLogger returns a text logger without timestamps or level attributes,
// suitable for tracing scanner decisions.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove timestamp for cleaner output
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
