package observability

import (
	"strings"

	"github.com/smallbiznis/collections/internal/config"
)

// Config is the observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	SystemTag   string

	config.ObservabilityConfig
}

func NewConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "collections"
	}
	return Config{
		ServiceName:         name,
		Environment:         strings.TrimSpace(cfg.Environment),
		Version:             strings.TrimSpace(cfg.AppVersion),
		SystemTag:           cfg.SystemTag,
		ObservabilityConfig: cfg.Observability,
	}
}

// Debug is true for debug logging or any non-production environment name
// used locally.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
