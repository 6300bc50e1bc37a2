package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	DataPath        string
	ComboServiceURL string
	OrderServiceURL string
	JWTSecret       string
	ProbeTimeout    time.Duration
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		DataPath:        getEnv("DATA_PATH", "panel.db"),
		ComboServiceURL: getEnv("COMBO_SERVICE_URL", "http://localhost:8082/api/v1"),
		OrderServiceURL: getEnv("ORDER_SERVICE_URL", "http://localhost:8083/api/v1"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		ProbeTimeout:    time.Duration(getEnvInt("PROBE_TIMEOUT_MS", 2000)) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
