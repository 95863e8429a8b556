package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/xraph/go-utils/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes for development logging.
const (
	reset      = "\033[0m"
	debugColor = "\033[36m" // Cyan
	infoColor  = "\033[32m" // Green
	warnColor  = "\033[33m" // Yellow
	errorColor = "\033[31m" // Red
	fatalColor = "\033[35m" // Magenta
)

// Logger represents the logging interface used across the container.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	Named(name string) Logger

	Sync() error
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string    `yaml:"level"`
	Format string    `yaml:"format"`
	Output io.Writer `yaml:"-"`
}

// logger implements the Logger interface using zap.
type logger struct {
	zap *zap.Logger
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(config LoggingConfig) Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	level := ParseLevel(config.Level)
	if strings.EqualFold(config.Format, "json") {
		encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		core := zapcore.NewCore(encoder, zapcore.AddSync(out), zap.NewAtomicLevelAt(level))
		return &logger{zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
	}

	return &logger{zap: createDevelopmentLogger(level, out)}
}

// NewDevelopmentLogger creates a development logger with colors.
func NewDevelopmentLogger() Logger {
	return &logger{zap: createDevelopmentLogger(zapcore.DebugLevel, os.Stderr)}
}

// NewNoopLogger creates a logger that discards everything.
func NewNoopLogger() Logger {
	return &logger{zap: zap.NewNop()}
}

// NewFromZap wraps an existing zap logger, mostly for tests with
// zaptest/observer cores.
func NewFromZap(z *zap.Logger) Logger {
	return &logger{zap: z}
}

// ParseLevel maps a textual level to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func createDevelopmentLogger(level zapcore.Level, out io.Writer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(out),
		zap.NewAtomicLevelAt(level),
	)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// customColorLevelEncoder adds colors to log levels.
func customColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch level {
	case zapcore.DebugLevel:
		color = debugColor
	case zapcore.InfoLevel:
		color = infoColor
	case zapcore.WarnLevel:
		color = warnColor
	case zapcore.ErrorLevel:
		color = errorColor
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = fatalColor
	default:
		color = reset
	}

	enc.AppendString(color + level.CapitalString() + reset)
}

func (l *logger) Debug(msg string, fields ...Field) {
	l.zap.Debug(msg, log.FieldsToZap(fields)...)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.zap.Info(msg, log.FieldsToZap(fields)...)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.zap.Warn(msg, log.FieldsToZap(fields)...)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.zap.Error(msg, log.FieldsToZap(fields)...)
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{zap: l.zap.With(log.FieldsToZap(fields)...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{zap: l.zap.Named(name)}
}

func (l *logger) Sync() error {
	return l.zap.Sync()
}

type contextKey struct{}

// WithLogger returns ctx carrying l. The container hands factories a
// context carrying a logger scoped to the bean being built.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext extracts a logger from the context, falling back to fallback.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(Logger); ok {
			return l
		}
	}
	if fallback == nil {
		return NewNoopLogger()
	}
	return fallback
}
