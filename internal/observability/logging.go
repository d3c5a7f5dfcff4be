package observability

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures NewLogger.
type Options struct {
	Level      string // debug|info|warn|error
	File       string // optional rotated log file in addition to stdout
	MaxSizeMB  int
	MaxBackups int
}

// ParseLevel maps debug|info|warn|error to a zap level, defaulting to info.
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

// NewLogger creates a sugared JSON logger. The returned AtomicLevel lets the
// daemon change verbosity on config reload without rebuilding the logger.
func NewLogger(opts Options) (*zap.SugaredLogger, zap.AtomicLevel) {
	lvl := zap.NewAtomicLevelAt(ParseLevel(opts.Level))

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	enc := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl),
	}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.AddSync(rotator), lvl))
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)
	logger := zap.New(core, zap.ErrorOutput(zapcore.Lock(os.Stderr)))
	return logger.Sugar(), lvl
}

// LogLevelEnv overrides logging.level when no -log-level flag is given.
const LogLevelEnv = "LOG_LEVEL"

// EnvLogLevel returns $LOG_LEVEL, trimmed, or configured when it is unset.
func EnvLogLevel(configured string) string {
	if v := strings.TrimSpace(os.Getenv(LogLevelEnv)); v != "" {
		return v
	}
	return configured
}
