// Package logging wraps the standard library's log.Logger with the
// level-prefixed, stderr-only messages the teacher's CLIs print directly
// via fmt.Fprintf(os.Stderr, ...). No cmd/* tool imports it; the tools
// write their messages to os.Stderr directly.
package logging

import (
	"io"
	"log"
	"os"
)

// Level is a logging verbosity threshold.
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

// Logger is a minimal leveled logger, writing every enabled message to
// one underlying *log.Logger.
type Logger struct {
	min   Level
	inner *log.Logger
}

// New builds a Logger writing to w (os.Stderr in production), suppressing
// messages below min.
func New(w io.Writer, min Level) *Logger {
	return &Logger{min: min, inner: log.New(w, "", log.LstdFlags)}
}

// Default is a ready-to-use Logger at LevelInfo writing to os.Stderr,
// matching the teacher's always-on os.Stderr output.
func Default() *Logger { return New(os.Stderr, LevelInfo) }

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.min {
		return
	}
	l.inner.Printf(level.String()+": "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }
