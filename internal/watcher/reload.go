package watcher

import (
	"fmt"

	"github.com/Winder2006/COBALT/internal/config"
	"github.com/Winder2006/COBALT/internal/risk"
	"go.uber.org/zap"
)

// EngineSetter receives a rebuilt risk engine.
type EngineSetter interface {
	SetEngine(e *risk.Engine)
}

// EngineFromConfig builds a risk engine from the default vocabulary and cfg's keyword overrides.
func EngineFromConfig(cfg *config.Config) (*risk.Engine, error) {
	vocab, err := risk.DefaultVocabulary().WithOverrides(cfg.Risk.Keywords)
	if err != nil {
		return nil, fmt.Errorf("risk keywords: %w", err)
	}
	return risk.NewEngine(vocab), nil
}

// RiskReloader returns an onChange callback that reloads the config file and swaps the
// engine on target. A file that fails to load or validate leaves the current engine in place.
func RiskReloader(target EngineSetter, logger *zap.Logger) func(path string) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(path string) {
		cfg, err := config.Load(path)
		if err != nil {
			logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		engine, err := EngineFromConfig(cfg)
		if err != nil {
			logger.Warn("risk vocabulary rejected", zap.String("path", path), zap.Error(err))
			return
		}
		target.SetEngine(engine)
		logger.Info("risk vocabulary reloaded", zap.String("path", path), zap.Int("overrides", len(cfg.Risk.Keywords)))
	}
}
