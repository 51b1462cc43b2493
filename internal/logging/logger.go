// Package logging provides zap logger helpers and the HTTP access log.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every production log line.
const ServiceName = "newsscraper"

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	logger, err := newConfig(development).Build()
	if err != nil {
		return nil, fmt.Errorf("build logger (development=%t): %w", development, err)
	}
	return logger, nil
}

func newConfig(development bool) zap.Config {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.InitialFields = map[string]any{"service": ServiceName}
	return cfg
}
