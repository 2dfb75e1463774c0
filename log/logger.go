package log

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	Level  = zapcore.Level
	Field  = zap.Field
	Option = zap.Option
)

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

// field helpers, so callers don't need to import zap
var (
	String     = zap.String
	Int        = zap.Int
	Int32      = zap.Int32
	Int64      = zap.Int64
	Float      = zap.Float64
	Float32    = zap.Float32
	Bool       = zap.Bool
	Duration   = zap.Duration
	Time       = zap.Time
	Any        = zap.Any
	ErrorField = zap.Error

	WithCaller    = zap.WithCaller
	AddCallerSkip = zap.AddCallerSkip
)

type Logger struct {
	l     *zap.Logger
	level zap.AtomicLevel
	// optional per logger levels, key is the full logger name (e.g. "sim.session")
	named map[string]Level
	name  string
}

// New creates a logger writing json encoded entries to writer
func New(writer io.Writer, level Level, opts ...Option) *Logger {
	if writer == nil {
		writer = os.Stderr
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	return newLogger(zapcore.NewJSONEncoder(cfg), writer, level, opts...)
}

// DevLogger creates a logger with console (text) output
func DevLogger(writer io.Writer, level Level, opts ...Option) *Logger {
	if writer == nil {
		writer = os.Stderr
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return newLogger(zapcore.NewConsoleEncoder(cfg), writer, level, opts...)
}

// FromConfig builds a logger from a (yaml based) Config
func FromConfig(cfg *Config) (*Logger, error) {
	level, err := ParseLevel(cfg.DefaultLevel)
	if err != nil {
		level = InfoLevel
	}
	atom := zap.NewAtomicLevelAt(level)
	cfg.Zap.Level = atom
	z, err := cfg.Zap.Build()
	if err != nil {
		return nil, err
	}
	ret := &Logger{l: z, level: atom, named: map[string]Level{}}
	for name, l := range cfg.Loggers {
		if lvl, err := ParseLevel(l); err == nil {
			ret.named[name] = lvl
		}
	}
	return ret, nil
}

func newLogger(enc zapcore.Encoder, writer io.Writer, level Level, opts ...Option) *Logger {
	atom := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(enc, zapcore.AddSync(writer), atom)
	return &Logger{
		l:     zap.New(core, opts...),
		level: atom,
		named: map[string]Level{},
	}
}

func ParseLevel(s string) (Level, error) {
	return zapcore.ParseLevel(s)
}

// Named returns a child logger. If a level was configured for the resulting
// name it is applied. Named levels can only raise the level of the parent.
func (l *Logger) Named(name string) *Logger {
	fullName := name
	if l.name != "" {
		fullName = l.name + "." + name
	}
	z := l.l.Named(name)
	if lvl, ok := l.named[fullName]; ok {
		z = z.WithOptions(zap.IncreaseLevel(lvl))
	}
	return &Logger{l: z, level: l.level, named: l.named, name: fullName}
}

// With returns a child logger with the given fields attached
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{l: l.l.With(fields...), level: l.level, named: l.named, name: l.name}
}

func (l *Logger) SetLevel(level Level) { l.level.SetLevel(level) }
func (l *Logger) Level() Level         { return l.level.Level() }

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Sync() error { return l.l.Sync() }

// ZapLogger gives access to the underlying zap logger
func (l *Logger) ZapLogger() *zap.Logger { return l.l }

var (
	mu  sync.RWMutex
	std = DevLogger(os.Stderr, InfoLevel)
)

func Default() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// ResetDefault replaces the package level logger.
func ResetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	std = l
}

func Debug(msg string, fields ...Field) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...Field) { Default().Error(msg, fields...) }
func Fatal(msg string, fields ...Field) { Default().Fatal(msg, fields...) }

func Sync() error { return Default().Sync() }
