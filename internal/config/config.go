package config

import (
	"os"
	"strconv"
)

// Config plantd-admin 配置
type Config struct {
	// API 远端监控平台接口
	API struct {
		BaseURL        string
		AuthToken      string
		TimeoutSeconds int
	}

	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}

	// MQTT 设备状态推送通道（默认关闭）
	MQTT struct {
		Enabled  bool
		Broker   string
		ClientID string
		Username string
		Password string
		Topic    string
		QoS      int
	}

	// Stats 报警统计缓存
	Stats struct {
		TTLSeconds int
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置
func Load() *Config {
	cfg := &Config{}

	cfg.API.BaseURL = getEnv("API_BASE_URL", "http://localhost:8080")
	cfg.API.AuthToken = getEnv("API_AUTH_TOKEN", "")
	cfg.API.TimeoutSeconds = getEnvInt("API_TIMEOUT_SECONDS", 30)

	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", false)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "plantd-admin")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_STATUS_TOPIC", "plantd/devices/+/status")
	cfg.MQTT.QoS = getEnvInt("MQTT_QOS", 1)

	cfg.Stats.TTLSeconds = getEnvInt("STATS_TTL_SECONDS", 60)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
