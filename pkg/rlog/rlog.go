// Package rlog is a thin leveled wrapper around the standard library's log
// package: callers log directly through it rather than pulling in a
// structured-logging library.
package rlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes leveled lines through a standard library *log.Logger,
// dropping anything below its configured minimum level.
type Logger struct {
	min   Level
	inner *log.Logger
}

// New builds a Logger writing to w with the given minimum level.
func New(w io.Writer, min Level) *Logger {
	return &Logger{min: min, inner: log.New(w, "", log.LstdFlags)}
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if level < l.min {
		return
	}
	l.inner.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

// default is the package-level logger most of the module logs through,
// relying on a shared default logger rather than threading one through
// every call.
var def = New(os.Stderr, LevelInfo)

// SetDefault replaces the package-level default logger, e.g. to raise the
// level to debug or redirect output in tests.
func SetDefault(l *Logger) { def = l }

func Debugf(format string, args ...any) { def.Debugf(format, args...) }
func Infof(format string, args ...any)  { def.Infof(format, args...) }
func Warnf(format string, args ...any)  { def.Warnf(format, args...) }
func Errorf(format string, args ...any) { def.Errorf(format, args...) }
