package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName       string
	AppVersion    string
	Environment   string
	HTTPAddr      string
	AuthJWTSecret string

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventsChannel string

	PolicyFile string

	BootstrapAdminEmail string

	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
}

// RateLimitConfig bounds message sending per user. Limiting is off unless
// Redis is configured.
type RateLimitConfig struct {
	MessagesPerMinute int
	MessageBurst      int
}

// TelemetryConfig carries logging and OpenTelemetry settings. Exporters stay
// off unless OTEL_ENABLED is set.
type TelemetryConfig struct {
	LogLevel         string
	LogFormat        string
	OTLPEndpoint     string
	OTLPProtocol     string
	TracingEnabled   bool
	MetricsEnabled   bool
	TraceSampleRatio float64
}

type SchedulerConfig struct {
	Enabled     bool
	SweepAt     string
	RunOnStart  bool
	EnabledJobs []string
	JobTimeout  time.Duration
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPolicyHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:           getenv("APP_SERVICE", "internlink"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		AuthJWTSecret:     strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "internlink"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getenvInt("REDIS_DB", 0),
		EventsChannel:     getenv("EVENTS_CHANNEL", "internlink.events"),
		PolicyFile:        strings.TrimSpace(getenv("POLICY_FILE", "")),

		BootstrapAdminEmail: strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", "")),
		Telemetry: loadTelemetry(),
		RateLimit: RateLimitConfig{
			MessagesPerMinute: getenvInt("MESSAGE_RATE_PER_MINUTE", 30),
			MessageBurst:      getenvInt("MESSAGE_RATE_BURST", 10),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getenvBool("SCHEDULER_ENABLED", true),
			SweepAt:     getenv("SWEEP_AT", "03:00"),
			RunOnStart:  getenvBool("SWEEP_ON_START", false),
			EnabledJobs: parseList(getenv("SCHEDULER_JOBS", "")),
			JobTimeout:  getenvDuration("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
		},
	}
}

func loadTelemetry() TelemetryConfig {
	protocol := getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		protocol = traces
	}
	tracing := getenvBool("OTEL_ENABLED", false)

	return TelemetryConfig{
		LogLevel:         strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:        strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		OTLPEndpoint:     strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317"))),
		OTLPProtocol:     strings.ToLower(strings.TrimSpace(protocol)),
		TracingEnabled:   tracing,
		MetricsEnabled:   tracing && getenvBool("OTEL_METRICS_ENABLED", true),
		TraceSampleRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
