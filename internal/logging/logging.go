// Package logging provides config-driven categorized file-based
// logging for loreloom. Logs are written to .loom/logs/ with one file
// per category. Logging is controlled by the logging section of
// .loom/config.yaml — when debug mode is off, nothing is written.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Category identifies the subsystem a log line comes from.
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup and wiring
	CategoryEngine    Category = "engine"    // Session engine operations
	CategoryTurns     Category = "turns"     // Reducer and reconciler activity
	CategoryStream    Category = "stream"    // Narration accumulator
	CategoryLedger    Category = "ledger"    // Legacy transcript merge
	CategoryHistory   Category = "history"   // Snapshot fetches
	CategoryTransport Category = "transport" // Push channel connection
	CategoryStore     Category = "store"     // Local turn cache
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// loggingConfig mirrors config.LoggingConfig to avoid a circular
// import with internal/config.
type loggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

type configFile struct {
	Logging loggingConfig `yaml:"logging"`
}

// Logger writes to one category's file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	mu       sync.RWMutex
	loggers  = make(map[Category]*Logger)
	logsDir  string
	cfg      loggingConfig
	logLevel = LevelInfo
)

// Initialize loads the logging section of <workspace>/.loom/config.yaml
// and, when debug mode is on, creates the log directory. Safe to call
// once at startup; without it every helper is a silent no-op.
func Initialize(workspace string) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	mu.Lock()
	defer mu.Unlock()

	loadConfig(workspace)
	if !cfg.DebugMode {
		return nil
	}

	logsDir = filepath.Join(workspace, ".loom", "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}
	return nil
}

func loadConfig(workspace string) {
	data, err := os.ReadFile(filepath.Join(workspace, ".loom", "config.yaml"))
	if err != nil {
		// No config means production mode: no logging.
		cfg = loggingConfig{}
		return
	}
	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not parse config: %v\n", err)
		cfg = loggingConfig{}
		return
	}
	cfg = cf.Logging
	switch cfg.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
}

// Close flushes and closes every category file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

func enabled(category Category) bool {
	if !cfg.DebugMode || logsDir == "" {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	on, ok := cfg.Categories[string(category)]
	if !ok {
		return true
	}
	return on
}

// Get returns (or creates) the logger for a category. A no-op logger
// is returned when the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if !enabled(category) {
		mu.RUnlock()
		return &Logger{category: category}
	}
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	path := filepath.Join(logsDir, string(category)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open %s: %v\n", path, err)
		return &Logger{category: category}
	}
	l := &Logger{
		category: category,
		logger:   log.New(f, "", 0),
		file:     f,
	}
	loggers[category] = l
	return l
}

func (l *Logger) write(level int, levelName, format string, args ...interface{}) {
	if l.logger == nil || level < logLevel {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("%s [%s] %s", ts, levelName, fmt.Sprintf(format, args...))
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, "WARN", format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}
