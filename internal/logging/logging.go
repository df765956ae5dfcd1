package logging

import (
	"github.com/kataras/golog"
)

// Logger is the minimal logging surface used across the engine.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// GologLogger implements Logger on top of kataras/golog.
type GologLogger struct {
	logger *golog.Logger
}

var _ Logger = (*GologLogger)(nil)

// New creates a logger writing through golog at the given level
// ("debug", "info", "warn", "error" or "disable").
func New(level string) *GologLogger {
	l := golog.New()
	l.SetLevel(level)
	return &GologLogger{logger: l}
}

func (l *GologLogger) Debug(format string, v ...any) { l.logger.Debugf(format, v...) }
func (l *GologLogger) Info(format string, v ...any)  { l.logger.Infof(format, v...) }
func (l *GologLogger) Warn(format string, v ...any)  { l.logger.Warnf(format, v...) }
func (l *GologLogger) Error(format string, v ...any) { l.logger.Errorf(format, v...) }

// Nop discards everything. Used as the default in library code and tests.
type Nop struct{}

var _ Logger = Nop{}

func (Nop) Debug(format string, v ...any) {}
func (Nop) Info(format string, v ...any)  {}
func (Nop) Warn(format string, v ...any)  {}
func (Nop) Error(format string, v ...any) {}
