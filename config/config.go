// Package config reads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath string
	Port         int
	LogLevel     string
	DevMode      bool

	// Solar cloud import (my-PV ELWA). Optional; settings in the
	// database take precedence when present.
	SolarCloudAPIKey  string
	SolarSerialNumber string
	SolarImportSpec   string // cron spec for the daily import

	// Home Assistant proxy defaults, overridable via settings.
	HomeAssistantURL   string
	HomeAssistantToken string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnvAsInt("PORT", 3001),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		DatabasePath:       getEnv("DATABASE_PATH", "./data/tracker.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SolarCloudAPIKey:   getEnv("SOLAR_CLOUD_API_KEY", ""),
		SolarSerialNumber:  getEnv("SOLAR_SERIAL_NUMBER", ""),
		SolarImportSpec:    getEnv("SOLAR_IMPORT_SPEC", "0 2 * * *"),
		HomeAssistantURL:   getEnv("HOME_ASSISTANT_URL", ""),
		HomeAssistantToken: getEnv("HOME_ASSISTANT_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid TCP port, got %d", c.Port)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
