package gateway

import (
	"fmt"

	"github.com/nguyentantai21042004/session-narrator/internal/config"
	"github.com/nguyentantai21042004/session-narrator/internal/logger"
)

// New builds the Client selected by cfg.Backend.
func New(cfg config.GatewayConfig, log logger.Logger) (Client, error) {
	switch cfg.Backend {
	case config.BackendOllama, "":
		return NewOllama(cfg.URL, cfg.Model, cfg.Timeout, log), nil
	case config.BackendGemini:
		return NewGemini(cfg.APIKeys, cfg.Model, log), nil
	default:
		return nil, fmt.Errorf("unsupported gateway backend %q", cfg.Backend)
	}
}

// OptionsFrom converts configured sampling settings to request options.
func OptionsFrom(s config.SamplingConfig) Options {
	return Options{Temperature: s.Temperature, TopK: s.TopK, TopP: s.TopP}
}
