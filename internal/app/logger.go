package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"checkout/internal/config"
)

// NewLogger builds a JSON logger in production and a console logger otherwise.
func NewLogger(env string, cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
