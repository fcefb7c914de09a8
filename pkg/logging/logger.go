package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements Logger on top of a logrus entry. Children created
// with With share the underlying logrus.Logger, and therefore its level.
type LogrusLogger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

// NewLogger creates a logger writing to w in the given format.
func NewLogger(w io.Writer, level Level, format Format) *LogrusLogger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(level.logrus())
	switch format {
	case FormatText:
		base.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	default:
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	return &LogrusLogger{base: base, entry: logrus.NewEntry(base)}
}

// NewJSONLogger creates a JSON logger
func NewJSONLogger(w io.Writer, level Level) *LogrusLogger {
	return NewLogger(w, level, FormatJSON)
}

func toLogrusFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

func (l *LogrusLogger) withFields(fields []Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	return l.entry.WithFields(toLogrusFields(fields))
}

func (l *LogrusLogger) Debug(msg string, fields ...Field) {
	l.withFields(fields).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...Field) {
	l.withFields(fields).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Field) {
	l.withFields(fields).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields ...Field) {
	l.withFields(fields).Error(msg)
}

// With creates a child logger with the given fields pre-set
func (l *LogrusLogger) With(fields ...Field) Logger {
	return &LogrusLogger{base: l.base, entry: l.withFields(fields)}
}

func (l *LogrusLogger) SetLevel(level Level) {
	l.base.SetLevel(level.logrus())
}

func (l *LogrusLogger) GetLevel() Level {
	return levelFromLogrus(l.base.GetLevel())
}

var (
	defaultLogger Logger
	defaultMu     sync.RWMutex
	once          sync.Once
)

// DefaultLogger returns the global default logger. LOG_LEVEL sets its level.
func DefaultLogger() Logger {
	once.Do(func() {
		level := InfoLevel
		if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
			level = ParseLevel(levelStr)
		}
		defaultMu.Lock()
		if defaultLogger == nil {
			defaultLogger = NewJSONLogger(os.Stderr, level)
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger Logger) {
	once.Do(func() {})
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

func Debug(msg string, fields ...Field) {
	DefaultLogger().Debug(msg, fields...)
}

func With(fields ...Field) Logger {
	return DefaultLogger().With(fields...)
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// End logs the operation at debug level with its duration
func (t *TimedOperation) End() time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Debug(t.msg, append(t.fields, Latency(elapsed))...)
	return elapsed
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error) time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Error(t.msg, append(t.fields, Latency(elapsed), Error(err))...)
	return elapsed
}
