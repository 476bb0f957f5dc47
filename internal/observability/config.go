package observability

import (
	"strings"

	"github.com/smallbiznis/internlink/internal/config"
)

// Config is the resolved telemetry identity shared by the logger, tracer and
// meter providers.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	Telemetry   config.TelemetryConfig
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "internlink"
	}
	return Config{
		ServiceName: serviceName,
		Environment: strings.TrimSpace(cfg.Environment),
		Version:     strings.TrimSpace(cfg.AppVersion),
		Telemetry:   cfg.Telemetry,
	}
}

// Debug enables verbose request logging and stack traces outside production.
func (c Config) Debug() bool {
	if c.Telemetry.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
