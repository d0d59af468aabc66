package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// parseLevel maps a config string to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
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

// buildHandler constructs the slog handler for the given format and level.
// "json" selects the machine-readable handler used in production; anything
// else falls back to the text handler for local development. Source locations
// are attached only at debug level to keep production records compact.
func buildHandler(format string, w io.Writer, lvl slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetupLogger installs the process-wide default logger from the logging
// configuration strings. All slog calls across the server then use it without
// carrying a *slog.Logger around. output selects "stderr" or stdout.
func SetupLogger(format, level, output string) {
	var w io.Writer = os.Stdout
	if strings.ToLower(output) == "stderr" {
		w = os.Stderr
	}

	lvl := parseLevel(level)
	slog.SetDefault(slog.New(buildHandler(format, w, lvl)))
	slog.Info("logger initialised", "format", format, "level", lvl.String())
}
