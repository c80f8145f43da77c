// File: internal/observability/logger.go
// Package observability owns the process-wide zap logger. The console shows
// operator-facing messages; the optional rotating file is a JSON time series
// of every entry, sample logs included, for offline belief analysis.
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/JustinLungu/RugBotSim-JustinDiana/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// globalLogger stores the global logger instance safely across goroutines.
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

const colorReset = "\x1b[0m"

var ansiColors = map[string]string{
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
}

// File entry keys. "ts" is in epoch seconds so a sample log can be plotted
// against simulated time without parsing dates.
const (
	fileTimeKey      = "ts"
	fileComponentKey = "component"
	fileEventKey     = "event"
)

// Initialize sets up the global logger from configuration, writing console
// output to consoleWriter. Only the first call has any effect.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		cores := []zapcore.Core{
			zapcore.NewCore(consoleEncoder(cfg), consoleWriter, parseLevel(cfg.Level, zap.InfoLevel)),
		}
		if cfg.LogFile != "" {
			cores = append(cores, fileCore(cfg))
		}

		options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			options = append(options, zap.AddCaller())
		}

		logger := zap.New(zapcore.NewTee(cores...), options...)
		if cfg.ServiceName != "" {
			logger = logger.Named(cfg.ServiceName)
		}
		globalLogger.Store(logger)

		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// InitializeLogger initializes the global logger with console output on Stderr,
// keeping Stdout free for command results.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stderr))
}

// ResetForTest clears the global logger so Initialize can run again.
// Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

func parseLevel(text string, fallback zapcore.Level) zap.AtomicLevel {
	level := zap.NewAtomicLevelAt(fallback)
	if text != "" {
		if err := level.UnmarshalText([]byte(text)); err != nil {
			level.SetLevel(fallback)
		}
	}
	return level
}

// fileCore writes JSON entries to a lumberjack-rotated file at FileLevel,
// debug when unset.
func fileCore(cfg config.LoggerConfig) zapcore.Core {
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = fileTimeKey
	enc.NameKey = fileComponentKey
	enc.MessageKey = fileEventKey
	enc.EncodeTime = zapcore.EpochTimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(enc), writer, parseLevel(cfg.FileLevel, zap.DebugLevel))
}

// consoleEncoder returns a coloured single-line encoder for Format "console"
// and a JSON encoder otherwise.
func consoleEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	enc := zap.NewProductionEncoderConfig()
	if cfg.Format != "console" {
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(enc)
	}

	// A run rarely spans midnight; the clock time is enough on a terminal.
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	enc.EncodeLevel = levelColorEncoder(cfg.Colors)
	enc.EncodeName = func(name string, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString("[" + name + "]")
	}
	return zapcore.NewConsoleEncoder(enc)
}

func levelColorEncoder(colors config.ColorConfig) zapcore.LevelEncoder {
	byLevel := map[zapcore.Level]string{
		zapcore.DebugLevel:  ansiColors[colors.Debug],
		zapcore.InfoLevel:   ansiColors[colors.Info],
		zapcore.WarnLevel:   ansiColors[colors.Warn],
		zapcore.ErrorLevel:  ansiColors[colors.Error],
		zapcore.DPanicLevel: ansiColors[colors.DPanic],
		zapcore.PanicLevel:  ansiColors[colors.Panic],
		zapcore.FatalLevel:  ansiColors[colors.Fatal],
	}
	return func(level zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
		name := level.CapitalString()
		if color := byLevel[level]; color != "" {
			name = color + name + colorReset
		}
		pae.AppendString(name)
	}
}

// GetLogger returns the initialized global logger instance.
func GetLogger() *zap.Logger {
	logger := globalLogger.Load()
	if logger == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		l.Warn("Global logger requested before initialization; using fallback.")
		return l.Named("fallback")
	}
	return logger
}

// benignSyncErrors are returned when syncing a terminal or pipe.
var benignSyncErrors = []string{
	"sync /dev/stdout",
	"sync /dev/stderr",
	"invalid argument",
	"operation not supported",
	"inappropriate ioctl",
}

// Sync flushes any buffered log entries.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	err := logger.Sync()
	if err == nil {
		return
	}
	for _, benign := range benignSyncErrors {
		if strings.Contains(err.Error(), benign) {
			return
		}
	}
	fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
}
