package observability

import (
	"time"

	"github.com/smallbiznis/collections/internal/observability/logger"
	"github.com/smallbiznis/collections/internal/observability/metrics"
	"github.com/smallbiznis/collections/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		NewConfig,
		func(cfg Config) logger.Config {
			return logger.Config{
				ServiceName:   cfg.ServiceName,
				Environment:   cfg.Environment,
				Version:       cfg.Version,
				SystemTag:     cfg.SystemTag,
				Level:         cfg.LogLevel,
				Format:        cfg.LogFormat,
				Debug:         cfg.Debug(),
				SlowThreshold: time.Duration(cfg.SlowQueryMillis) * time.Millisecond,
			}
		},
		logger.New,
		func(cfg Config) tracing.Config {
			return tracing.Config{
				Enabled:          cfg.OtelEnabled,
				ServiceName:      cfg.ServiceName,
				ServiceVersion:   cfg.Version,
				Environment:      cfg.Environment,
				ExporterEndpoint: cfg.OTLPEndpoint,
				ExporterProtocol: cfg.OTLPProtocol,
				SamplingRatio:    cfg.TraceSampleRatio,
			}
		},
		tracing.NewProvider,
		func(cfg Config) metrics.Config {
			return metrics.Config{
				Enabled:          cfg.OtelEnabled,
				ExporterEndpoint: cfg.OTLPEndpoint,
				ExporterProtocol: cfg.OTLPProtocol,
				ServiceName:      cfg.ServiceName,
				Environment:      cfg.Environment,
			}
		},
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.NewGenerationMetrics,
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
