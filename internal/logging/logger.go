package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    = Config{Level: "info", Format: "text"}
	output          io.Writer = os.Stderr
	recent          *Recent
	mutex           sync.RWMutex
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level" yaml:"level"`
	Format  string            `toml:"format" yaml:"format"`
	Modules map[string]string `toml:"modules" yaml:"modules"`
}

// Initialize sets up the logging system. Loggers handed out before the call
// share the module level var, so they follow the new level; their format is
// fixed at creation.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	rebuild()
}

// KeepRecent starts recording the last size log entries and returns the
// ring. Only loggers fetched after the call record into it.
func KeepRecent(size int) *Recent {
	mutex.Lock()
	defer mutex.Unlock()

	recent = NewRecent(size)
	rebuild()
	return recent
}

// rebuild recreates every handler from the current settings (must hold lock).
func rebuild() {
	config := globalConfig
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(module))
		moduleLoggers[module] = slog.New(createHandler(config.Format, levelVar)).With("module", module)
	}

	globalLevel := &slog.LevelVar{}
	globalLevel.Set(ParseLevel(config.Level, slog.LevelInfo))
	slog.SetDefault(slog.New(createHandler(config.Format, globalLevel)))
}

// SetOutput redirects the stdout/stderr handler. Journal output is unaffected.
func SetOutput(w io.Writer) {
	mutex.Lock()
	defer mutex.Unlock()
	output = w
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, exists := moduleLoggers[module]; exists {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()

	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevel(module))

	logger := slog.New(createHandler(globalConfig.Format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// moduleLevel resolves the effective level for a module (must hold lock).
func moduleLevel(module string) slog.Level {
	level := ParseLevel(globalConfig.Level, slog.LevelInfo)
	if levelStr, exists := globalConfig.Modules[module]; exists {
		level = ParseLevel(levelStr, level)
	}
	return level
}

// createHandler builds the handler chain: the configured writer, the recent
// ring when enabled, and the systemd journal when it is reachable. Must hold
// lock.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var writerHandler slog.Handler
	if format == "json" {
		writerHandler = slog.NewJSONHandler(output, opts)
	} else {
		writerHandler = slog.NewTextHandler(output, opts)
	}

	handlers := []slog.Handler{writerHandler}
	if recent != nil {
		handlers = append(handlers, &recentHandler{recent: recent, level: level})
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	if len(handlers) == 1 {
		return writerHandler
	}
	return NewMultiHandler(handlers...)
}

// ParseLevel converts a level name to slog.Level, returning fallback for
// empty or unknown names.
func ParseLevel(level string, fallback slog.Level) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
