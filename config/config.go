package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the backend.
type Config struct {
	Port      string
	LogLevel  string
	ProjectID string
	// Store selects the document store backend: "firestore" or "memory".
	Store string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnvOrDefault("PORT", "8080"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		ProjectID: os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Store:     os.Getenv("STORE_BACKEND"),
	}

	if cfg.Store == "" {
		if cfg.ProjectID != "" {
			cfg.Store = "firestore"
		} else {
			cfg.Store = "memory"
		}
	}

	switch cfg.Store {
	case "firestore":
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required for the firestore backend")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
