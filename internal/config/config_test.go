package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTelemetryFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_METRICS_ENABLED", "off")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "2")
	t.Setenv("LOG_LEVEL", " DEBUG ")

	tc := loadTelemetry()
	assert.True(t, tc.TracingEnabled)
	assert.False(t, tc.MetricsEnabled)
	assert.Equal(t, "http", tc.OTLPProtocol)
	assert.Equal(t, 0.1, tc.TraceSampleRatio)
	assert.Equal(t, "debug", tc.LogLevel)
}
