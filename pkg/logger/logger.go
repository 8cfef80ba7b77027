// Package logger provides the process-wide structured logger.
// Before Init is called every function logs to a no-op logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	global  atomic.Pointer[zap.Logger]
	rotator *lumberjack.Logger
	mu      sync.Mutex
)

// Options configures Init.
type Options struct {
	Level      string // debug, info, warn, error
	File       string // JSON log file, rotated by size; empty disables
	MaxSizeMB  int
	MaxBackups int
	Console    bool      // Human-readable output on ConsoleWriter
	Writer     io.Writer // Console destination; defaults to stderr
	Name       string    // Root logger name
}

// Init builds the global logger. Calling it again replaces the previous one
// and closes its log file.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	level := zap.NewAtomicLevel()
	if opts.Level == "" {
		opts.Level = "info"
	}
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var cores []zapcore.Core
	if opts.Console {
		w := opts.Writer
		if w == nil {
			w = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder(), zapcore.Lock(zapcore.AddSync(w)), level))
	}

	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	if opts.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotator), level))
	}

	if len(cores) == 0 {
		global.Store(zap.NewNop())
		return nil
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel))
	if opts.Name != "" {
		l = l.Named(opts.Name)
	}
	global.Store(l)
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeCaller = nil
	return zapcore.NewConsoleEncoder(cfg)
}

// L returns the global logger.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Named returns a child of the global logger.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() {
	if err := L().Sync(); err != nil {
		msg := err.Error()
		if !strings.Contains(msg, "/dev/std") && !strings.Contains(msg, "invalid argument") {
			fmt.Fprintln(os.Stderr, "failed to sync logger:", err)
		}
	}
}

// Close flushes and closes the log file.
func Close() {
	Sync()
	mu.Lock()
	defer mu.Unlock()
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
}

// ResetForTest drops the global logger.
func ResetForTest() {
	Close()
	global.Store(nil)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	L().Sugar().Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	L().Sugar().Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	L().Sugar().Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	L().Sugar().Warnf(format, v...)
}
