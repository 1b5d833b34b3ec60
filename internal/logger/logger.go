package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop().Sugar()

// Init installs the process-wide logger. format is "json" or "console".
func Init(level, format string) {
	log = New(os.Stdout, level, format)
}

// New builds a sugared zap logger writing to w.
func New(w io.Writer, level, format string) *zap.SugaredLogger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var enc zapcore.Encoder
	if format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), parseLevel(level))
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Set replaces the process-wide logger; tests use it to capture output.
func Set(l *zap.SugaredLogger) {
	log = l
}

func L() *zap.SugaredLogger {
	return log
}

func parseLevel(level string) zapcore.Level {
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

func Info(msg string, keysAndValues ...any) {
	log.Infow(msg, keysAndValues...)
}

func Infof(format string, v ...any) {
	log.Info(fmt.Sprintf(format, v...))
}

func Warn(msg string, keysAndValues ...any) {
	log.Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	log.Errorw(msg, keysAndValues...)
}

func Errorf(format string, v ...any) {
	log.Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, keysAndValues ...any) {
	log.Debugw(msg, keysAndValues...)
}

func Debugf(format string, v ...any) {
	log.Debug(fmt.Sprintf(format, v...))
}

func Fatalf(format string, v ...any) {
	log.Fatal(fmt.Sprintf(format, v...))
}

func WithError(err error) *zap.SugaredLogger {
	return log.With("error", err)
}

func WithFields(fields map[string]any) *zap.SugaredLogger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return log.With(args...)
}

func Sync() {
	_ = log.Sync()
}
