package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 25, cfg.DBMaxOpenConnections)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, 5*time.Minute, cfg.RotationTimeout)
	assert.Equal(t, 10, cfg.IntegritySampleSize)
	assert.Equal(t, "vaultkit", cfg.MetricsNamespace)
	assert.Equal(t, 8081, cfg.MetricsPort)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("ROTATION_TIMEOUT_SECONDS", "30")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("INTEGRITY_CHECK_SCHEDULE", "0 * * * *")

	cfg := Load()

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 30*time.Second, cfg.RotationTimeout)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "0 * * * *", cfg.IntegrityCheckSchedule)
}
