package logging

import (
	"fmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"os"
	"sync"
	"time"
)

const (
	CONSOLE = "console"
	JOURNAL = "systemd-journald"
	FILE    = "file"
)

// encoderConfig is shared by the console and file outputs.
var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Options maps names of child loggers to their log level.
type Options map[string]zapcore.Level

// coreFactory creates a zapcore.Core logging at the given level to the configured output.
type coreFactory func(zap.AtomicLevel) zapcore.Core

// Logging provides the default logger and named child loggers, e.g. "server" or "retention".
// A child logger logs at its level from Options or, if there's none, shares the default logger's level.
type Logging struct {
	logger   *zap.SugaredLogger
	level    zap.AtomicLevel
	interval time.Duration
	options  Options
	newCore  coreFactory

	mu       sync.Mutex
	children map[string]*zap.SugaredLogger
}

// NewLogging returns a new Logging whose default logger is named name and logs at c.Level to c.Output.
func NewLogging(name string, c *Config) (*Logging, error) {
	newCore, err := newCoreFactory(name, c)
	if err != nil {
		return nil, err
	}

	level := zap.NewAtomicLevelAt(c.Level)

	return &Logging{
		logger:   zap.New(newCore(level)).Named(name).Sugar(),
		level:    level,
		interval: c.Interval,
		options:  c.Options,
		newCore:  newCore,
		children: map[string]*zap.SugaredLogger{},
	}, nil
}

// GetChildLogger returns the child logger called name, creating it on first use.
func (l *Logging) GetChildLogger(name string) *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if child, ok := l.children[name]; ok {
		return child
	}

	level := l.level
	if lvl, ok := l.options[name]; ok {
		level = zap.NewAtomicLevelAt(lvl)
	}

	child := zap.New(l.newCore(level)).Named(name).Sugar()
	l.children[name] = child

	return child
}

// GetLogger returns the default logger.
func (l *Logging) GetLogger() *Logger {
	return NewLogger(l.logger, l.interval)
}

func newCoreFactory(name string, c *Config) (coreFactory, error) {
	switch c.Output {
	case CONSOLE:
		return writerCores(zapcore.Lock(os.Stderr)), nil
	case JOURNAL:
		return func(level zap.AtomicLevel) zapcore.Core {
			return NewJournaldCore(name, level)
		}, nil
	case FILE:
		// One lumberjack.Logger for all cores, so that rotation sees every write.
		return writerCores(zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.File.Path,
			MaxSize:    c.File.MaxSize,
			MaxBackups: c.File.MaxBackups,
			Compress:   c.File.Compress,
		})), nil
	default:
		return nil, invalidOutput(c.Output)
	}
}

func writerCores(ws zapcore.WriteSyncer) coreFactory {
	enc := zapcore.NewConsoleEncoder(encoderConfig)

	return func(level zap.AtomicLevel) zapcore.Core {
		return zapcore.NewCore(enc, ws, level)
	}
}

// AssertOutput returns an error if o is not a valid log output.
func AssertOutput(o string) error {
	switch o {
	case CONSOLE, JOURNAL, FILE:
		return nil
	default:
		return invalidOutput(o)
	}
}

func invalidOutput(o string) error {
	return fmt.Errorf("%s is not a valid logger output. Must be one of %q, %q or %q", o, CONSOLE, JOURNAL, FILE)
}

// Logger is the default logger, which also knows how often periodic status lines are logged.
type Logger struct {
	*zap.SugaredLogger
	interval time.Duration
}

// NewLogger returns a new Logger logging periodic status lines every interval.
func NewLogger(base *zap.SugaredLogger, interval time.Duration) *Logger {
	return &Logger{SugaredLogger: base, interval: interval}
}

// Interval returns the interval for periodic logging.
func (l *Logger) Interval() time.Duration {
	return l.interval
}
