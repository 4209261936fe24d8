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
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	OTLPEndpoint string

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

	// DBLogLevel is the SQL statement log level: silent, error, warn or info.
	DBLogLevel           string
	DBSlowQueryThreshold time.Duration

	SnowflakeNode int64

	// SeedFile points at a json/yaml dataset loaded on first boot. Empty disables seeding.
	SeedFile string

	FacetCacheTTL time.Duration

	RateLimit RateLimitConfig
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CatalogRate   float64
	CatalogBurst  int
	SeedLockTTL   time.Duration
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "catalog"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		HTTPReadTimeout:   time.Duration(getenvInt("HTTP_READ_TIMEOUT_SECONDS", 15)) * time.Second,
		HTTPWriteTimeout:  time.Duration(getenvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)) * time.Second,
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "catalog"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME_SECONDS", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME_SECONDS", 300),
		SnowflakeNode:     getenvInt64("SNOWFLAKE_NODE", 1),
		SeedFile:          strings.TrimSpace(getenv("SEED_FILE", "")),
		FacetCacheTTL:     time.Duration(getenvInt("FACET_CACHE_TTL_SECONDS", 0)) * time.Second,
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "localhost:6379")),
			RedisPassword: strings.TrimSpace(getenv("RATE_LIMIT_REDIS_PASSWORD", "")),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			CatalogRate:   getenvFloat("RATE_LIMIT_CATALOG_RATE", 20),
			CatalogBurst:  getenvInt("RATE_LIMIT_CATALOG_BURST", 40),
			SeedLockTTL:   time.Duration(getenvInt("RATE_LIMIT_SEED_LOCK_TTL_SECONDS", 60)) * time.Second,
		},
	}

	cfg.DBLogLevel = strings.ToLower(strings.TrimSpace(getenv("DATABASE_LOG_LEVEL", "warn")))
	cfg.DBSlowQueryThreshold = time.Duration(getenvInt("DATABASE_SLOW_QUERY_MS", 200)) * time.Millisecond

	return cfg
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
	return int(getenvInt64(key, int64(def)))
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

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
