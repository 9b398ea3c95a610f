// Package logger wires the process-wide zap logger. Init is called once
// from main; library packages fetch the logger through Logger() and get
// a no-op logger when running uninitialized (e.g. in tests).
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.SugaredLogger

// Init builds the console logger and installs it globally. Verbose
// enables debug-level output.
func Init(verbose bool) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	z, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(z)
	global = z.Sugar()
	return nil
}

// Logger returns the process logger, never nil.
func Logger() *zap.SugaredLogger {
	if global == nil {
		return zap.NewNop().Sugar()
	}
	return global
}
