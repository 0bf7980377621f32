package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stdout resolves os.Stdout at write time so tests that swap it still capture output.
type stdout struct{}

func (stdout) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (l *zapLogger) Debug(args ...interface{})                   { l.sugar.Debug(args...) }
func (l *zapLogger) Debugf(template string, args ...interface{}) { l.sugar.Debugf(template, args...) }
func (l *zapLogger) Debugw(msg string, kv ...interface{})        { l.sugar.Debugw(msg, kv...) }
func (l *zapLogger) Info(args ...interface{})                    { l.sugar.Info(args...) }
func (l *zapLogger) Infof(template string, args ...interface{})  { l.sugar.Infof(template, args...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})         { l.sugar.Infow(msg, kv...) }
func (l *zapLogger) Warn(args ...interface{})                    { l.sugar.Warn(args...) }
func (l *zapLogger) Warnf(template string, args ...interface{})  { l.sugar.Warnf(template, args...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})         { l.sugar.Warnw(msg, kv...) }
func (l *zapLogger) Error(args ...interface{})                   { l.sugar.Error(args...) }
func (l *zapLogger) Errorf(template string, args ...interface{}) { l.sugar.Errorf(template, args...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{})        { l.sugar.Errorw(msg, kv...) }

func (l *zapLogger) Sublogger(subname string) Logger {
	name := subname
	if l.name != "" {
		name = l.name + "." + subname
	}
	// zap joins nested names with a dot already
	return &zapLogger{name: name, level: l.level, sugar: l.sugar.Named(subname)}
}

func (l *zapLogger) With(keysAndValues ...interface{}) Logger {
	return &zapLogger{name: l.name, level: l.level, sugar: l.sugar.With(keysAndValues...)}
}

func (l *zapLogger) SetLevel(level Level) {
	l.level.SetLevel(zapcore.Level(level))
}

func (l *zapLogger) GetLevel() Level {
	return Level(l.level.Level())
}

func (l *zapLogger) AsZap() *zap.SugaredLogger {
	return l.sugar
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}
