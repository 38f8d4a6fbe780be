package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName      string
	AppVersion   string
	Environment  string
	HTTPAddr     string
	DefaultOrgID int64
	SystemTag    string

	// SuperAdminEmails bypass system access checks and are hidden from account listings.
	SuperAdminEmails []string

	Observability ObservabilityConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	AutoMigrate       bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AsyncWorkers    int
	AsyncBufferSize int

	Bootstrap BootstrapConfig
}

// ObservabilityConfig carries logging and OTLP export settings.
type ObservabilityConfig struct {
	LogLevel         string
	LogFormat        string
	SlowQueryMillis  int
	OtelEnabled      bool
	OTLPEndpoint     string
	OTLPProtocol     string
	TraceSampleRatio float64
}

type BootstrapConfig struct {
	AdminEmail     string
	AdminFirstName string
	AdminLastName  string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "collections"),
		AppVersion:        firstEnv("0.1.0", "SERVICE_VERSION", "APP_VERSION"),
		Environment:       firstEnv("development", "DEPLOYMENT_ENV", "ENVIRONMENT"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		DefaultOrgID:      getenvInt64("DEFAULT_ORG", 0),
		SystemTag:         strings.ToLower(getenv("SYSTEM_TAG", "collections")),
		SuperAdminEmails:  parseList(getenv("SUPER_ADMIN_EMAILS", "")),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "collections"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "collections.db"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           int(getenvInt64("REDIS_DB", 0)),
		AsyncWorkers:      int(getenvInt64("ASYNC_WORKERS", 2)),
		AutoMigrate:       getenvBool("DATABASE_AUTO_MIGRATE", true),
		AsyncBufferSize:   int(getenvInt64("ASYNC_BUFFER_SIZE", 256)),
		Observability: ObservabilityConfig{
			LogLevel:         strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:        strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			SlowQueryMillis:  int(getenvInt64("DATABASE_SLOW_QUERY_MS", 200)),
			OtelEnabled:      getenvBool("OTEL_ENABLED", true),
			OTLPEndpoint:     strings.TrimSpace(firstEnv("localhost:4317", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTLP_ENDPOINT")),
			OTLPProtocol:     strings.ToLower(strings.TrimSpace(firstEnv("grpc", "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "OTEL_EXPORTER_OTLP_PROTOCOL"))),
			TraceSampleRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:     strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", "")),
			AdminFirstName: getenv("BOOTSTRAP_ADMIN_FIRSTNAME", "System"),
			AdminLastName:  getenv("BOOTSTRAP_ADMIN_LASTNAME", "Admin"),
		},
	}

	return cfg
}

// IsSuperAdmin reports whether email belongs to a configured super admin.
func (c Config) IsSuperAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, candidate := range c.SuperAdminEmails {
		if candidate == email {
			return true
		}
	}
	return false
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// firstEnv returns the first non-empty variable among keys.
func firstEnv(def string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return def
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

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
