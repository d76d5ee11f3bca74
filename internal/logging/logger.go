// Package logging provides structured logging for ranker with consistent formatting
// and context support. It wraps charmbracelet/log to provide leveled logging with
// structured key-value pairs for debugging and monitoring.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// Level represents a log level.
type Level int

const (
	// LevelDebug is for verbose debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for recoverable errors and warnings.
	LevelWarn
	// LevelError is for significant errors that may impact functionality.
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// String returns the lower-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts a level name from configuration or flags.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelWarn, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) charm() charmlog.Level {
	switch l {
	case LevelDebug:
		return charmlog.DebugLevel
	case LevelInfo:
		return charmlog.InfoLevel
	case LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.WarnLevel
	}
}

// Logger provides structured logging with context.
type Logger struct {
	mu  sync.RWMutex
	out *charmlog.Logger
}

var (
	// defaultLogger is the package-level logger.
	defaultLogger = New()
)

// New creates a new Logger writing to stderr at warn level.
func New() *Logger {
	return &Logger{out: newCharm(os.Stderr, LevelWarn)}
}

func newCharm(w io.Writer, level Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level.charm(),
		Prefix:          "ranker",
		ReportTimestamp: false,
	})
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetLevel(level.charm())
}

// SetOutput redirects log output.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetOutput(w)
}

// SetTimestamps toggles timestamps on each line.
func (l *Logger) SetTimestamps(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetReportTimestamp(on)
}

// With returns a new Logger with an additional context field.
func (l *Logger) With(key string, value interface{}) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{out: l.out.With(key, value)}
}

// WithFields returns a new Logger with multiple additional context fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keyVals := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		keyVals = append(keyVals, k, v)
	}
	return &Logger{out: l.out.With(keyVals...)}
}

func (l *Logger) logger() *charmlog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.out
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyVals ...interface{}) {
	l.logger().Debug(msg, keyVals...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, keyVals ...interface{}) {
	l.logger().Info(msg, keyVals...)
}

// Warn logs at warn level (for recoverable errors).
func (l *Logger) Warn(msg string, keyVals ...interface{}) {
	l.logger().Warn(msg, keyVals...)
}

// Error logs at error level (for significant errors).
func (l *Logger) Error(msg string, keyVals ...interface{}) {
	l.logger().Error(msg, keyVals...)
}

// Package-level functions that use the default logger.

// SetLevel sets the minimum log level for the default logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the output for the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// SetTimestamps toggles timestamps for the default logger.
func SetTimestamps(on bool) {
	defaultLogger.SetTimestamps(on)
}

// With returns a new Logger with additional context from the default logger.
func With(key string, value interface{}) *Logger {
	return defaultLogger.With(key, value)
}

// WithFields returns a new Logger with multiple additional context fields.
func WithFields(fields map[string]interface{}) *Logger {
	return defaultLogger.WithFields(fields)
}

// Debug logs at debug level using the default logger.
func Debug(msg string, keyVals ...interface{}) {
	defaultLogger.Debug(msg, keyVals...)
}

// Info logs at info level using the default logger.
func Info(msg string, keyVals ...interface{}) {
	defaultLogger.Info(msg, keyVals...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, keyVals ...interface{}) {
	defaultLogger.Warn(msg, keyVals...)
}

// Error logs at error level using the default logger.
func Error(msg string, keyVals ...interface{}) {
	defaultLogger.Error(msg, keyVals...)
}
