package ffmpeg

import (
	"log/slog"
	"strings"
)

// ParseLogLevel extracts the log level from ffmpeg output.
// FFmpeg with -loglevel level+warning outputs lines like "[error] message"
// or "[component @ 0x...] [level] message" for component-specific logs.
// Returns the level and the message with level stripped but component preserved.
// Progress stats lines are reported at debug.
func ParseLogLevel(line string) (slog.Level, string) {
	if strings.HasPrefix(line, "frame=") || strings.HasPrefix(line, "size=") {
		return slog.LevelDebug, line
	}
	if len(line) < 3 || line[0] != '[' {
		return slog.LevelInfo, line
	}

	end := strings.Index(line, "] ")
	if end == -1 {
		return slog.LevelInfo, line
	}

	if level, ok := logLevel(line[1:end]); ok {
		return level, line[end+2:]
	}

	// [component @ 0x...] [level] message: keep the component
	component := line[:end+2]
	rest := line[end+2:]
	if len(rest) > 2 && rest[0] == '[' {
		if nextEnd := strings.Index(rest, "] "); nextEnd != -1 {
			if level, ok := logLevel(rest[1:nextEnd]); ok {
				return level, component + rest[nextEnd+2:]
			}
		}
	}

	return slog.LevelInfo, line
}

func logLevel(s string) (slog.Level, bool) {
	switch s {
	case "quiet", "panic", "fatal", "error":
		return slog.LevelError, true
	case "warning":
		return slog.LevelWarn, true
	case "info":
		return slog.LevelInfo, true
	case "verbose", "debug", "trace":
		return slog.LevelDebug, true
	}
	return 0, false
}
