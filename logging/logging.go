// Package logging provides the structured logger handed to every component of the pose search.
// It is a thin layer over zap: one sugared logger per name, with a level that can be changed
// after construction.
package logging

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is the logging interface of the search packages.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<name>.<subname>" sharing this logger's level.
	Sublogger(subname string) Logger
	// With returns a logger that adds the given key value pairs to every entry.
	With(keysAndValues ...interface{}) Logger
	SetLevel(level Level)
	GetLevel() Level
	AsZap() *zap.SugaredLogger
	Sync() error
}

// Level is a log level.
type Level int8

// Log levels.
const (
	DEBUG = Level(zapcore.DebugLevel)
	INFO  = Level(zapcore.InfoLevel)
	WARN  = Level(zapcore.WarnLevel)
	ERROR = Level(zapcore.ErrorLevel)
)

func (level Level) String() string {
	return zapcore.Level(level).String()
}

// LevelFromString parses debug, info, warn (or warning) and error, ignoring case.
func LevelFromString(inp string) (Level, error) {
	s := strings.ToLower(inp)
	if s == "warning" {
		s = "warn"
	}
	switch s {
	case "debug", "info", "warn", "error":
		l, err := zapcore.ParseLevel(s)
		return Level(l), err
	default:
		return DEBUG, errors.Errorf("unknown log level: %q", inp)
	}
}

type zapLogger struct {
	name  string
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

func newZapLogger(name string, level Level, core zapcore.Core) *zapLogger {
	atomic := zap.NewAtomicLevelAt(zapcore.Level(level))
	leveled, err := zapcore.NewIncreaseLevelCore(core, atomic)
	if err != nil {
		// a core that drops everything cannot be raised
		leveled = core
	}
	return &zapLogger{
		name:  name,
		level: atomic,
		sugar: zap.New(leveled, zap.AddCaller()).Named(name).Sugar(),
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z0700")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func stdoutCore() zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(stdout{})),
		zapcore.DebugLevel,
	)
}

// NewLogger returns a logger writing INFO and above to stdout.
func NewLogger(name string) Logger {
	return newZapLogger(name, INFO, stdoutCore())
}

// NewDebugLogger returns a logger writing DEBUG and above to stdout.
func NewDebugLogger(name string) Logger {
	return newZapLogger(name, DEBUG, stdoutCore())
}

// NewBlankLogger returns a logger that discards everything.
func NewBlankLogger(name string) Logger {
	return newZapLogger(name, DEBUG, zapcore.NewNopCore())
}

// NewTestLogger returns a logger writing DEBUG and above through tb.Log.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also records entries for assertions.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	testCore := zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Core()
	observerCore, logs := observer.New(zapcore.DebugLevel)
	return newZapLogger("", DEBUG, zapcore.NewTee(testCore, observerCore)), logs
}
