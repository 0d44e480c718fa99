// Package obs builds the process logger.
package obs

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a JSON production logger, or a console logger when
// development is set. level is a zap level name; empty means info.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if strings.TrimSpace(level) == "" {
		lvl = zapcore.InfoLevel
	} else if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
