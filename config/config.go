package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BackendBaseURL string
	RedisAddr      string
	HTTPPort       string
	JWTSecret      string
	SessionTTL     time.Duration
	BackendTimeout time.Duration
}

func Load() *Config {
	return &Config{
		BackendBaseURL: getEnv("BACKEND_URL", "http://localhost:8000/api"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		SessionTTL:     getDuration("SESSION_TTL_HOURS", 24) * time.Hour,
		BackendTimeout: getDuration("BACKEND_TIMEOUT_SECONDS", 15) * time.Second,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal int) time.Duration {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(defaultVal)
}
