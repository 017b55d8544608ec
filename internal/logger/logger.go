// Package logger provides the leveled logging interface used across larder.
package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Logger is implemented by every log backend.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Level is the minimum severity a StandardLogger emits.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
	LevelOff
)

// ParseLevel maps a config value to a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none":
		return LevelOff
	default:
		return LevelInfo
	}
}

// StandardLogger writes tagged lines through a *log.Logger.
type StandardLogger struct {
	logger *log.Logger
	level  Level
}

// New returns a StandardLogger writing to w.
func New(w io.Writer, level Level) *StandardLogger {
	return &StandardLogger{
		logger: log.New(w, "larder ", log.LstdFlags),
		level:  level,
	}
}

// Wrap adapts an existing *log.Logger.
func Wrap(l *log.Logger, level Level) *StandardLogger {
	return &StandardLogger{logger: l, level: level}
}

func (s *StandardLogger) Info(format string, args ...any) {
	if s.level <= LevelInfo {
		s.logger.Printf("[INFO] "+format, args...)
	}
}

func (s *StandardLogger) Warn(format string, args ...any) {
	if s.level <= LevelWarn {
		s.logger.Printf("[WARN] "+format, args...)
	}
}

func (s *StandardLogger) Error(format string, args ...any) {
	if s.level <= LevelError {
		s.logger.Printf("[ERROR] "+format, args...)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

// Recorder keeps formatted messages in memory. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	infos []string
	warns []string
	errs  []string
}

func (r *Recorder) Info(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}

func (r *Recorder) Warn(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, fmt.Sprintf(format, args...))
}

func (r *Recorder) Error(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

// Infos returns a copy of the recorded info lines.
func (r *Recorder) Infos() []string { return r.snapshot(&r.infos) }

// Warnings returns a copy of the recorded warning lines.
func (r *Recorder) Warnings() []string { return r.snapshot(&r.warns) }

// Errors returns a copy of the recorded error lines.
func (r *Recorder) Errors() []string { return r.snapshot(&r.errs) }

func (r *Recorder) snapshot(lines *[]string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(*lines))
	copy(out, *lines)
	return out
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = Nop{}
	_ Logger = (*Recorder)(nil)
)
