// Package logging provides a small levelled key/value logger.
//
// Output goes to stderr because stdout carries the MCP protocol.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger writes prefixed key/value lines at or above its level.
type Logger struct {
	prefix string
	level  Level
	logger *log.Logger
}

// New creates a logger writing to stderr.
func New(prefix string, level Level) *Logger {
	return NewWithWriter(os.Stderr, prefix, level)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, prefix string, level Level) *Logger {
	return &Logger{
		prefix: prefix,
		level:  level,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewWithWriter(io.Discard, "nop", LevelError+1)
}

// With returns a logger sharing the output and level under a new prefix.
func (l *Logger) With(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		level:  l.level,
		logger: log.New(l.logger.Writer(), fmt.Sprintf("[%s] ", prefix), l.logger.Flags()),
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelDebug, msg, keysAndValues...)
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(LevelError, msg, keysAndValues...)
}

func (l *Logger) logWithKV(level Level, msg string, keysAndValues ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	var kv strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&kv, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, kv.String())
}
