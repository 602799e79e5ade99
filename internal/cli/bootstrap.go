package cli

import (
	"go.uber.org/zap"

	"quiz-battle-service/internal/config"
	"quiz-battle-service/internal/logging"
)

// bootstrap loads config and installs the global logger.
func bootstrap(configPath string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return cfg, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}
