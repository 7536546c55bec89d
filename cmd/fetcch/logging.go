package main

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a zap production logger at level and returns it together
// with an slog.Logger writing through it. Unknown levels fall back to info.
func newLogger(level string, development bool) (*zap.Logger, *slog.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return zl, slog.New(zapslog.NewHandler(zl.Core())), nil
}
