package config

import (
	"os"
	"time"
)

// Backend selects where the key-value entries live.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Addr           string
	JWTSecret      string
	StorageBackend string
	DatabaseURL    string
	RedisURL       string
	CheckoutDelay  time.Duration
	LogLevel       string
}

func Load() Config {
	addr := os.Getenv("PORTAL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	backend := os.Getenv("PORTAL_STORAGE")
	if backend == "" {
		backend = BackendMemory
	}

	level := os.Getenv("PORTAL_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	delay := 2 * time.Second
	if raw := os.Getenv("PORTAL_CHECKOUT_DELAY"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			delay = parsed
		}
	}

	return Config{
		Addr:           addr,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		StorageBackend: backend,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		CheckoutDelay:  delay,
		LogLevel:       level,
	}
}
