// Package logger provides the leveled, structured logger used across autocheck.
// The API is deliberately small; records are encoded by zap.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a flag value to a Level, falling back to InfoLevel.
func ParseLevel(s string) Level {
	switch s {
	case "trace", "TRACE":
		return TraceLevel
	case "debug", "DEBUG":
		return DebugLevel
	case "warn", "WARN", "warning":
		return WarnLevel
	case "error", "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// zap has no trace level; trace sits one step below debug.
const zapTraceLevel = zapcore.DebugLevel - 1

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case TraceLevel:
		return zapTraceLevel
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func fromZapLevel(l zapcore.Level) Level {
	switch {
	case l <= zapTraceLevel:
		return TraceLevel
	case l == zapcore.DebugLevel:
		return DebugLevel
	case l == zapcore.InfoLevel:
		return InfoLevel
	case l == zapcore.WarnLevel:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	NoOp      bool
}

// Logger represents the logger instance
type Logger struct {
	config Config
	zl     *zap.Logger
}

// Default logger instance
var defaultLogger *Logger

// Initialize sets up the default logger writing to stderr
func Initialize(config Config) error {
	l, err := New(config, os.Stderr)
	if err != nil {
		return err
	}
	defaultLogger = l
	return nil
}

// New builds a logger that writes to w.
func New(config Config, w io.Writer) (*Logger, error) {
	if w == nil {
		return nil, fmt.Errorf("logger output writer is nil")
	}
	core := zapcore.NewCore(newEncoder(config), zapcore.AddSync(w), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= config.Level.zapLevel()
	}))

	opts := []zap.Option{}
	if config.Level <= DebugLevel {
		// caller -> package func or method -> log -> zap
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(2))
	}
	zl := zap.New(core, opts...)
	if config.Component != "" {
		zl = zl.Named(config.Component)
	}
	if config.NoOp {
		zl = zl.With(zap.Bool("no_op", true))
	}
	return &Logger{config: config, zl: zl}, nil
}

func newEncoder(config Config) zapcore.Encoder {
	if config.JSON {
		enc := zap.NewProductionEncoderConfig()
		enc.TimeKey = "time"
		enc.MessageKey = "message"
		enc.NameKey = "component"
		enc.EncodeTime = zapcore.RFC3339TimeEncoder
		enc.EncodeLevel = levelEncoder(false)
		return zapcore.NewJSONEncoder(enc)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	enc.EncodeLevel = levelEncoder(config.UseColor)
	enc.ConsoleSeparator = " "
	return zapcore.NewConsoleEncoder(enc)
}

var levelColors = map[Level]string{
	TraceLevel: "\033[37m",
	DebugLevel: "\033[36m",
	InfoLevel:  "\033[32m",
	WarnLevel:  "\033[33m",
	ErrorLevel: "\033[31m",
}

func levelEncoder(color bool) zapcore.LevelEncoder {
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		level := fromZapLevel(l)
		if color {
			enc.AppendString("[" + levelColors[level] + level.String() + "\033[0m]")
			return
		}
		enc.AppendString(level.String())
	}
}

// Log writes a log message
func (l *Logger) Log(level Level, message string, fields ...Field) {
	l.log(level, message, fields)
}

func (l *Logger) log(level Level, message string, fields []Field) {
	if ce := l.zl.Check(level.zapLevel(), message); ce != nil {
		ce.Write(toZap(fields)...)
	}
}

// With returns a child logger that adds fields to every record.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{config: l.config, zl: l.zl.With(toZap(fields)...)}
}

func (l *Logger) Trace(message string, fields ...Field) { l.log(TraceLevel, message, fields) }
func (l *Logger) Debug(message string, fields ...Field) { l.log(DebugLevel, message, fields) }
func (l *Logger) Info(message string, fields ...Field)  { l.log(InfoLevel, message, fields) }
func (l *Logger) Warn(message string, fields ...Field)  { l.log(WarnLevel, message, fields) }
func (l *Logger) Error(message string, fields ...Field) { l.log(ErrorLevel, message, fields) }

// Sync flushes buffered records.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// Convenience functions for default logger
func Trace(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(TraceLevel, message, fields)
	}
}

func Debug(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(DebugLevel, message, fields)
	}
}

func Info(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(InfoLevel, message, fields)
	} else {
		// Fallback to stderr if logger not initialized
		_, _ = fmt.Fprintf(os.Stderr, "[INFO] autocheck: %s\n", message)
	}
}

func Warn(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(WarnLevel, message, fields)
	}
}

func Error(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.log(ErrorLevel, message, fields)
	}
}

// With derives a logger from the default one. Before Initialize it
// returns a logger that discards everything.
func With(fields ...Field) *Logger {
	if defaultLogger == nil {
		return &Logger{zl: zap.NewNop()}
	}
	return defaultLogger.With(fields...)
}

// SetOutput rebuilds the default logger with a new output writer
func SetOutput(w io.Writer) {
	if defaultLogger == nil || w == nil {
		return
	}
	if l, err := New(defaultLogger.config, w); err == nil {
		defaultLogger = l
	}
}

// Sync flushes the default logger.
func Sync() {
	if defaultLogger != nil {
		_ = defaultLogger.Sync()
	}
}
