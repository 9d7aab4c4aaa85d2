package observability

import (
	"strings"

	"github.com/smallbiznis/barberdesk/internal/config"
	"github.com/spf13/viper"
)

const defaultSamplingRatio = 0.1

// Config drives logging, tracing and metrics. Anything the environment leaves
// unset falls back to the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DEPLOYMENT_ENV", cfg.Environment)
	v.SetDefault("SERVICE_VERSION", cfg.AppVersion)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	v.SetDefault("OTEL_SAMPLING_RATIO", defaultSamplingRatio)

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "barberdesk"
	}

	// a traces-specific protocol wins over the shared one
	protocol := normalized(v.GetString("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"))
	if protocol == "" {
		protocol = normalized(v.GetString("OTEL_EXPORTER_OTLP_PROTOCOL"))
	}

	ratio := v.GetFloat64("OTEL_SAMPLING_RATIO")
	if ratio < 0 || ratio > 1 {
		ratio = defaultSamplingRatio
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(v.GetString("DEPLOYMENT_ENV")),
		Version:              strings.TrimSpace(v.GetString("SERVICE_VERSION")),
		LogLevel:             normalized(v.GetString("LOG_LEVEL")),
		LogFormat:            normalized(v.GetString("LOG_FORMAT")),
		OtelEnabled:          v.GetBool("OTEL_ENABLED"),
		OtelExporterEndpoint: strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    ratio,
	}
}

// Debug turns on caller stacks and console-friendly output.
func (c Config) Debug() bool {
	if normalized(c.LogLevel) == "debug" {
		return true
	}
	switch normalized(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func normalized(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
