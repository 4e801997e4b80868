// Package config loads server configuration from the environment, with an
// optional local .env file for development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the non-database settings of the server. Database settings
// are read by the database package.
type Config struct {
	Port          string
	AdminUsername string
	AdminPassword string
	SessionTTL    time.Duration
}

// Load reads configuration. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	ttl := 8 * time.Hour
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		}
	}
	return Config{
		Port:          getEnv("PORT", "8080"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "changeMe"),
		SessionTTL:    ttl,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
