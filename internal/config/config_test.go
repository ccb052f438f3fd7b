package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSeconds)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "plantd/devices/+/status", cfg.MQTT.Topic)
	assert.Equal(t, 60, cfg.Stats.TTLSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://platform.example.com")
	t.Setenv("API_TIMEOUT_SECONDS", "5")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("LOG_FORMAT", "console")

	cfg := Load()

	assert.Equal(t, "https://platform.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.TimeoutSeconds)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2, cfg.MQTT.QoS)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("API_TIMEOUT_SECONDS", "soon")
	t.Setenv("REDIS_ENABLED", "yes please")

	cfg := Load()

	assert.Equal(t, 30, cfg.API.TimeoutSeconds)
	assert.False(t, cfg.Redis.Enabled)
}
