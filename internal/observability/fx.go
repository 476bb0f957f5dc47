package observability

import (
	"github.com/smallbiznis/internlink/internal/observability/logger"
	"github.com/smallbiznis/internlink/internal/observability/metrics"
	"github.com/smallbiznis/internlink/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		splitConfig,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
	fx.Invoke(metrics.SchedulerWithConfig),
)

type componentConfigs struct {
	fx.Out

	Logger  logger.Config
	Tracing tracing.Config
	Metrics metrics.Config
}

func splitConfig(cfg Config) componentConfigs {
	t := cfg.Telemetry
	return componentConfigs{
		Logger: logger.Config{
			ServiceName:         cfg.ServiceName,
			Environment:         cfg.Environment,
			Version:             cfg.Version,
			Level:               t.LogLevel,
			Format:              t.LogFormat,
			Debug:               cfg.Debug(),
			IncludeCaller:       true,
			IncludeStackOnError: cfg.Debug(),
		},
		Tracing: tracing.Config{
			Enabled:          t.TracingEnabled,
			ServiceName:      cfg.ServiceName,
			ServiceVersion:   cfg.Version,
			Environment:      cfg.Environment,
			ExporterEndpoint: t.OTLPEndpoint,
			ExporterProtocol: t.OTLPProtocol,
			SamplingRatio:    t.TraceSampleRatio,
		},
		Metrics: metrics.Config{
			Enabled:          t.MetricsEnabled,
			ExporterEndpoint: t.OTLPEndpoint,
			ExporterProtocol: t.OTLPProtocol,
			ServiceName:      cfg.ServiceName,
			Environment:      cfg.Environment,
		},
	}
}
