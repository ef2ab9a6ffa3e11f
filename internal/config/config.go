package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL string
	Token      string
	Username   string
	JoinCode   string
	// StorePath is where the file-backed store lives. Ignored when
	// RedisAddr is set.
	StorePath    string
	RedisAddr    string
	PollInterval time.Duration

	// Dev server settings.
	ListenAddr string
	JWTSecret  string
}

func Load() *Config {
	return &Config{
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:8080"),
		Token:        getEnv("API_TOKEN", ""),
		Username:     getEnv("USERNAME", "player"),
		JoinCode:     getEnv("JOIN_CODE", ""),
		StorePath:    getEnv("STORE_PATH", ".duetquiz/state.json"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		PollInterval: getSeconds("POLL_INTERVAL_SEC", 3),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getSeconds reads an integer number of seconds and returns it as a
// fully-formed duration.
func getSeconds(key string, defaultSec int) time.Duration {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(defaultSec) * time.Second
}
