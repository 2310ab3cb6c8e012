package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Identifier tags every journal entry written by the daemon.
const Identifier = "blinkd"

// Logger is a duck-typed interface satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// module is one named logger and the level it shares with every handler
// derived from it.
type module struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

type registry struct {
	mu          sync.RWMutex
	config      Config
	initialized bool
	global      slog.LevelVar
	modules     map[string]*module
}

var std = &registry{modules: make(map[string]*module)}

// Initialize sets up the logging system. Loggers handed out earlier keep
// working and pick up the new levels and format.
func Initialize(config Config) {
	std.mu.Lock()
	defer std.mu.Unlock()

	std.config = config
	std.initialized = true
	std.global.Set(levelOr(config.Level, slog.LevelInfo))

	for name, m := range std.modules {
		m.level.Set(std.levelFor(name))
		m.logger = slog.New(newHandler(config.Format, m.level)).With("module", name)
	}

	slog.SetDefault(slog.New(newHandler(config.Format, &std.global)))
}

// SetModuleLevel changes a module's level at runtime. It returns false if
// the level string is not recognised.
func SetModuleLevel(name, level string) bool {
	parsed, ok := parseLevel(level)
	if !ok {
		return false
	}

	GetLogger(name)

	std.mu.Lock()
	defer std.mu.Unlock()
	std.modules[name].level.Set(parsed)
	if std.config.Modules == nil {
		std.config.Modules = make(map[string]string)
	}
	std.config.Modules[name] = level
	return true
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(name string) *slog.Logger {
	std.mu.RLock()
	m, ok := std.modules[name]
	std.mu.RUnlock()
	if ok {
		return m.logger
	}

	std.mu.Lock()
	defer std.mu.Unlock()
	if m, ok := std.modules[name]; ok {
		return m.logger
	}

	m = &module{level: &slog.LevelVar{}}
	format := "text"
	if std.initialized {
		m.level.Set(std.levelFor(name))
		format = std.config.Format
	}
	m.logger = slog.New(newHandler(format, m.level)).With("module", name)
	std.modules[name] = m
	return m.logger
}

// levelFor resolves a module's level from its override or the global level.
// Callers hold r.mu.
func (r *registry) levelFor(name string) slog.Level {
	level := levelOr(r.config.Level, slog.LevelInfo)
	if override, ok := r.config.Modules[name]; ok {
		level = levelOr(override, level)
	}
	return level
}

// newHandler builds the output chain: stdout when something is attached to
// it, the journal when journald is listening.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	var sinks []slog.Handler
	if isStdoutAvailable() {
		sinks = append(sinks, stdout)
	}
	if IsJournalAvailable() {
		sinks = append(sinks, NewJournalHandler(level))
	}

	switch len(sinks) {
	case 0:
		return stdout
	case 1:
		return sinks[0]
	default:
		return NewTee(sinks...)
	}
}

// isStdoutAvailable reports whether stdout goes somewhere other than /dev/null.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

func levelOr(level string, fallback slog.Level) slog.Level {
	if parsed, ok := parseLevel(level); ok {
		return parsed
	}
	return fallback
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
