// File: internal/observability/logger.go
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xkilldash9x/formprobe/internal/config"
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

// ansiColors maps the colour names accepted in logger.colors to escape codes.
var ansiColors = map[string]string{
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
}

// Terminal sync errors that carry no information.
var ignoredSyncErrors = []string{"/dev/std", "invalid argument", "inappropriate ioctl", "operation not supported"}

// Initialize sets up the global logger, writing console output to consoleWriter
// and, when configured, JSON lines to a rotating log file.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		cores := []zapcore.Core{zapcore.NewCore(getEncoder(cfg), consoleWriter, level)}

		if cfg.LogFile != "" {
			fileWriter := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
			fileEncoder := getEncoder(config.LoggerConfig{Format: "json"})
			cores = append(cores, zapcore.NewCore(fileEncoder, fileWriter, level))
		}

		options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			options = append(options, zap.AddCaller())
		}

		logger := zap.New(zapcore.NewTee(cores...), options...).Named(cfg.ServiceName)
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
	})
}

// InitializeLogger initializes the global logger with console output on stderr,
// keeping stdout free for godog's formatter.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stderr))
}

// ResetForTest clears the global logger. Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

func newColorizedLevelEncoder(colors config.ColorConfig) zapcore.LevelEncoder {
	byLevel := map[zapcore.Level]string{
		zapcore.DebugLevel:  ansiColors[colors.Debug],
		zapcore.InfoLevel:   ansiColors[colors.Info],
		zapcore.WarnLevel:   ansiColors[colors.Warn],
		zapcore.ErrorLevel:  ansiColors[colors.Error],
		zapcore.DPanicLevel: ansiColors[colors.DPanic],
		zapcore.PanicLevel:  ansiColors[colors.Panic],
		zapcore.FatalLevel:  ansiColors[colors.Fatal],
	}
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		name := level.CapitalString()
		if color := byLevel[level]; color != "" {
			name = color + name + colorReset
		}
		enc.AppendString(name)
	}
}

// getEncoder returns a colorized console encoder for "console" and a JSON
// encoder for anything else.
func getEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = newColorizedLevelEncoder(cfg.Colors)
		encoderConfig.EncodeName = func(loggerName string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(loggerName + ".")
		}
		return zapcore.NewConsoleEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// GetLogger returns the global logger, or a development logger named
// "fallback" when Initialize has not run yet.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("fallback")
}

// Sync flushes buffered log entries. Call before exiting.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	err := logger.Sync()
	if err == nil {
		return
	}
	for _, ignored := range ignoredSyncErrors {
		if strings.Contains(err.Error(), ignored) {
			return
		}
	}
	fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
}
