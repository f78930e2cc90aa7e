// Package logger provides structured logging for discovr-events on zerolog.
//
// Output is one JSON object per line by default; LOG_FORMAT=console switches
// to a human-readable writer. Every entry carries a timestamp and any
// structured fields passed by the caller. Component loggers attach a
// "component" field so pipeline, source and storage output can be told apart.
//
// Example usage:
//
//	logger.Info("Source fetched", logger.Fields{
//	    "source":  "vancouver-tourism",
//	    "records": 42,
//	})
//
//	logger.Error("Save failed", logger.Fields{
//	    "store": "mongo",
//	}, err)
//
//	log := logger.ForComponent("pipeline")
//	log.Debug("Deduplicated", logger.Fields{"output": 17})
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	zl zerolog.Logger
}

var (
	mu            sync.RWMutex
	defaultLogger = New(LevelInfo, os.Stdout)
)

// ParseLevel converts a level name (debug, info, warn, error; any case) to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New creates a JSON logger with the given minimum level and output.
// Messages below the minimum level are discarded.
func New(level Level, output io.Writer) *Logger {
	zl := zerolog.New(output).Level(zerologLevel(level)).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// NewConsole creates a logger with human-readable output
func NewConsole(level Level, output io.Writer) *Logger {
	w := zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	zl := zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// FromEnv builds a logger from LOG_LEVEL and LOG_FORMAT. An unknown level
// falls back to info; LOG_FORMAT=console selects the console writer.
func FromEnv(output io.Writer) *Logger {
	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		return NewConsole(level, output)
	}
	return New(level, output)
}

// SetDefault sets the package-level logger used by the convenience functions
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// Default returns the package-level logger
func Default() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// WithFields returns a child logger that adds fields to every entry
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{zl: l.zl.With().Fields(map[string]interface{}(fields)).Logger()}
}

// WithField returns a child logger with a single extra field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// Enabled reports whether entries at level would be written
func (l *Logger) Enabled(level Level) bool {
	return zerologLevel(level) >= l.zl.GetLevel()
}

// Debug logs a debug message with optional structured fields
func (l *Logger) Debug(message string, fields Fields) {
	l.zl.Debug().Fields(map[string]interface{}(fields)).Msg(message)
}

// Info logs an informational message with optional structured fields
func (l *Logger) Info(message string, fields Fields) {
	l.zl.Info().Fields(map[string]interface{}(fields)).Msg(message)
}

// Warn logs a warning message with optional structured fields
func (l *Logger) Warn(message string, fields Fields) {
	l.zl.Warn().Fields(map[string]interface{}(fields)).Msg(message)
}

// Error logs an error message with optional structured fields and an error
func (l *Logger) Error(message string, fields Fields, err error) {
	l.zl.Error().Fields(map[string]interface{}(fields)).Err(err).Msg(message)
}

// Package-level convenience functions using the default logger

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	Default().Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	Default().Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	Default().Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	Default().Error(message, fields, err)
}

// ForComponent returns a child of the default logger tagged with a component
func ForComponent(name string) *Logger {
	return Default().WithField("component", name)
}

// ForSource returns a child of the default logger tagged with a source name
func ForSource(name string) *Logger {
	return Default().WithFields(Fields{"component": "source", "source": name})
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
