package logx

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Logger takes a message followed by alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZap adapts l to Logger.
func NewZap(l *zap.Logger) Logger {
	if l == nil {
		return nop{}
	}
	return zapLogger{s: l.Sugar()}
}

func (z zapLogger) Debug(msg string, args ...any) { z.s.Debugw(msg, args...) }
func (z zapLogger) Info(msg string, args ...any)  { z.s.Infow(msg, args...) }
func (z zapLogger) Warn(msg string, args ...any)  { z.s.Warnw(msg, args...) }
func (z zapLogger) Error(msg string, args ...any) { z.s.Errorw(msg, args...) }

type holder struct{ l Logger }

var current atomic.Value

func init() {
	current.Store(holder{l: NewZap(zap.NewNop())})
}

func L() Logger {
	return current.Load().(holder).l
}

func SetLogger(l Logger) {
	if l == nil {
		l = nop{}
	}
	current.Store(holder{l: l})
}
