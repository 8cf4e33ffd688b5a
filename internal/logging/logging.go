package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. "development" gets a human-readable console
// logger, anything else gets production JSON output.
func New(env, level string) (*zap.Logger, error) {
	logger, _, err := NewWithLevel(env, level)
	return logger, err
}

// NewWithLevel is New, also returning the level handle so it can be changed
// at runtime (config reloads use this).
func NewWithLevel(env, level string) (*zap.Logger, zap.AtomicLevel, error) {
	var cfg zap.Config
	if strings.EqualFold(env, "development") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	if err := SetLevel(cfg.Level, level); err != nil {
		return nil, cfg.Level, err
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, cfg.Level, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Named("econavix"), cfg.Level, nil
}

// SetLevel parses level and applies it; an empty level leaves atom unchanged
func SetLevel(atom zap.AtomicLevel, level string) error {
	if level == "" {
		return nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	atom.SetLevel(lvl)
	return nil
}

// OrNop returns l, or a no-op logger when l is nil
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
