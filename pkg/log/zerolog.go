package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/goml/pkg/errors"
)

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger creates a JSON logger writing to w at the given minimum level.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(level))
	return &ZerologLogger{logger: zl}
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	emit(z.logger.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	emit(z.logger.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	emit(z.logger.Warn(), msg, fields)
}

// Error implements Logger.Error.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	emit(z.logger.Error(), msg, fields)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{logger: z.logger.With().Fields(normalizeFields(fields)).Logger()}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return z.logger.GetLevel() <= toZerologLevel(level)
}

func emit(e *zerolog.Event, msg string, fields []any) {
	// zerolog returns a nil event for disabled levels
	if e == nil {
		return
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = e.Err(err)
			var obj zerolog.LogObjectMarshaler
			if errors.As(err, &obj) {
				e = e.Object("error.detail", obj)
			}
			fields = fields[1:]
		}
	}
	e.Fields(normalizeFields(fields)).Msg(msg)
}

// normalizeFields stringifies keys and drops a dangling key without value.
func normalizeFields(fields []any) []interface{} {
	out := make([]interface{}, 0, len(fields))
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, fmt.Sprintf("%v", fields[i]), fields[i+1])
	}
	return out
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologProvider is the process-wide LoggerProvider.
type zerologProvider struct {
	mu     sync.RWMutex
	output io.Writer
	level  Level
	root   *ZerologLogger
}

var defaultProvider = newZerologProvider(os.Stderr, LevelWarn)

func newZerologProvider(w io.Writer, level Level) *zerologProvider {
	return &zerologProvider{output: w, level: level, root: NewZerologLogger(w, level)}
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.root = NewZerologLogger(p.output, level)
}

func (p *zerologProvider) setOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
	p.root = NewZerologLogger(w, p.level)
}

// GetLogger returns the default logger.
func GetLogger() Logger {
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns the default logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return defaultProvider.GetLoggerWithName(name)
}

// SetLevel changes the minimum level of loggers created afterwards.
func SetLevel(level Level) {
	defaultProvider.SetLevel(level)
}

// SetOutput redirects loggers created afterwards to w.
func SetOutput(w io.Writer) {
	defaultProvider.setOutput(w)
}

// Provider returns the process-wide LoggerProvider.
func Provider() LoggerProvider {
	return defaultProvider
}

func init() {
	errors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), w)
	})
}
