package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration. It is built once in main and
// passed down explicitly; nothing reads the environment after Load.
type Config struct {
	// Telegram configuration
	TelegramToken string

	// Database configuration
	DatabaseURL string

	// Bot configuration
	AdminID        int64 // Telegram ID allowed to delete points
	FoldPointNames bool  // legacy case-insensitive point name matching

	// Environment
	Environment string // "development" or "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		FoldPointNames: os.Getenv("FOLD_POINT_NAMES") == "true",
		Environment:    os.Getenv("ENVIRONMENT"),
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if adminID := os.Getenv("ADMIN_ID"); adminID != "" {
		parsed, err := strconv.ParseInt(adminID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_ID is not a valid id: %w", err)
		}
		config.AdminID = parsed
	}

	if config.Environment != "test" {
		if config.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.AdminID == 0 {
			return nil, fmt.Errorf("ADMIN_ID is required")
		}
	}

	return config, nil
}
