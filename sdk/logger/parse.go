package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// parseOutput maps LOG_OUTPUT to a writer. Anything unrecognised is stdout.
func parseOutput(o string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(o)) {
	case "stderr":
		return os.Stderr
	case "discard", "none":
		return io.Discard
	default:
		return os.Stdout
	}
}

// parseLevel accepts slog level names with offsets ("debug", "WARN+2") and
// "warning". Anything unparseable is info.
func parseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
