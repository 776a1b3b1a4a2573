package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("PLANT_INT", "12")
	t.Setenv("PLANT_BAD_INT", "x")
	t.Setenv("PLANT_BOOL", "false")

	assert.Equal(t, 12, EnvIntDefault("PLANT_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("PLANT_BAD_INT", 1))
	assert.Equal(t, 3, EnvIntDefault("PLANT_MISSING", 3))
	assert.False(t, EnvBoolDefault("PLANT_BOOL", true))
	assert.True(t, EnvBoolDefault("PLANT_MISSING", true))
	assert.Equal(t, "def", EnvDefault("PLANT_MISSING", "def"))
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "plants")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PUBLIC_BASE_URL", "https://plants.example/")
	t.Setenv("CSRF_ENABLED", "false")
	t.Setenv("ACCESS_TTL_MINUTES", "5")

	cfg := Load()

	assert.Equal(t, "host=db port=5432 user=plants password=secret dbname=shop sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://plants.example", cfg.PublicBaseURL)
	assert.False(t, cfg.CSRFEnabled)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, "plants", cfg.ESIndex)
}
