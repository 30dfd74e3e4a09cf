package logging

import (
	"io"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents log severity levels.
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

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger provides structured JSON logging on top of zap.
type Logger struct {
	mu     *sync.Mutex
	output io.Writer
	level  zap.AtomicLevel
	fields map[string]interface{}
	zl     *zap.Logger
}

// New creates a logger writing JSON lines to stdout at info level.
func New() *Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &Logger{
		mu:     &sync.Mutex{},
		output: os.Stdout,
		level:  level,
		fields: make(map[string]interface{}),
		zl:     newZap(os.Stdout, level),
	}
}

func newZap(output io.Writer, level zap.AtomicLevel) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(output)),
		level,
	)
	return zap.New(core)
}

// SetOutput sets the output writer for the logger.
func (l *Logger) SetOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.zl = newZap(w, l.level)
	return l
}

// SetLevel sets the minimum log level. Loggers derived with WithFields share it.
func (l *Logger) SetLevel(level Level) *Logger {
	l.level.SetLevel(level.zapLevel())
	return l
}

// WithField returns a new logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a new logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		mu:     &sync.Mutex{},
		output: l.output,
		level:  l.level,
		fields: newFields,
		zl:     l.zl,
	}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	l.mu.Lock()
	zl := l.zl
	l.mu.Unlock()
	return zl.Sync()
}

func (l *Logger) log(level Level, msg string, additionalFields ...map[string]interface{}) {
	zapLevel := level.zapLevel()
	if !l.level.Enabled(zapLevel) {
		return
	}

	allFields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		allFields[k] = v
	}
	for _, f := range additionalFields {
		for k, v := range f {
			allFields[k] = v
		}
	}

	keys := make([]string, 0, len(allFields))
	for k := range allFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zapFields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zapFields = append(zapFields, zap.Any(k, allFields[k]))
	}

	l.mu.Lock()
	zl := l.zl
	l.mu.Unlock()
	zl.Log(zapLevel, msg, zapFields...)
}

// Default is the default logger instance.
var Default = New()

// SetDefaultLevel sets the level for the default logger.
func SetDefaultLevel(level Level) {
	Default.SetLevel(level)
}

func Debug(msg string, fields ...map[string]interface{}) {
	Default.Debug(msg, fields...)
}

func Info(msg string, fields ...map[string]interface{}) {
	Default.Info(msg, fields...)
}

func Warn(msg string, fields ...map[string]interface{}) {
	Default.Warn(msg, fields...)
}

func Error(msg string, fields ...map[string]interface{}) {
	Default.Error(msg, fields...)
}
