// Package xlog provides the process-wide structured logger used by
// internal/launcher, internal/pump, and the root package's supervisor
// (run.go, signals.go). It is lazily
// initialized from environment variables, the same way tmc/macgo's debug
// package gates its stdlib logger, but backs onto go.uber.org/zap the way
// edirooss/zmux-server's processmgr does for its supervision events.
package xlog

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
)

// Get returns the process-wide logger, initializing it on first use.
// PTESTRUNNER_DEBUG=1 switches from a no-op logger to a console-encoded
// debug logger on stderr; PTESTRUNNER_LOG_LEVEL overrides the level
// ("debug", "info", "warn", "error").
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		return logger
	}

	if os.Getenv("PTESTRUNNER_DEBUG") != "1" && os.Getenv("PTESTRUNNER_LOG_LEVEL") == "" {
		logger = zap.NewNop()
		return logger
	}

	level := zapcore.InfoLevel
	if os.Getenv("PTESTRUNNER_DEBUG") == "1" {
		level = zapcore.DebugLevel
	}
	if lv := os.Getenv("PTESTRUNNER_LOG_LEVEL"); lv != "" {
		_ = level.Set(lv)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	logger = zap.New(core)
	return logger
}

// Reset discards the cached logger, forcing the next Get to re-read the
// environment. It exists for tests that toggle PTESTRUNNER_DEBUG.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
}
