package observability

import (
	"testing"
	"time"

	"github.com/smallbiznis/catalog/internal/config"
	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("DEPLOYMENT_ENV", "")

	cfg := LoadConfig(config.Config{AppName: "", Environment: "production", AppVersion: "1.2.3"})

	assert.Equal(t, "catalog", cfg.ServiceName)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.OtelEnabled)
	assert.False(t, cfg.Debug())
	assert.Equal(t, "warn", cfg.SQLLogLevel)
}

func TestDebugInDevelopment(t *testing.T) {
	assert.True(t, Config{Environment: "local"}.Debug())
	assert.True(t, Config{Environment: "production", LogLevel: "debug"}.Debug())
}

func TestGormLoggerConfigFollowsDatabaseSettings(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEPLOYMENT_ENV", "")

	cfg := LoadConfig(config.Config{
		Environment:          "production",
		DBLogLevel:           "error",
		DBSlowQueryThreshold: 50 * time.Millisecond,
	})

	gormCfg := provideGormLoggerConfig(cfg)
	assert.Equal(t, gormlogger.Error, gormCfg.Level)
	assert.Equal(t, 50*time.Millisecond, gormCfg.SlowThreshold)

	cfg.Environment = "development"
	assert.Equal(t, gormlogger.Info, provideGormLoggerConfig(cfg).Level)
}
