package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config represents the bot configuration.
type Config struct {
	BotToken    string
	DBFile      string
	StringsFile string
	Timezone    *time.Location
}

// LoadConfig loads configuration from a .env file and environment variables.
// BOT_TOKEN is required; everything else has a default.
func LoadConfig() (*Config, error) {
	// Try to load from .env file; missing file is fine.
	loadEnvFile(".env")

	config := &Config{
		BotToken:    strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		DBFile:      strings.TrimSpace(os.Getenv("DB_FILE")),
		StringsFile: strings.TrimSpace(os.Getenv("STRINGS_FILE")),
	}
	if config.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if config.DBFile == "" {
		config.DBFile = "event_companion.db"
	}
	if config.StringsFile == "" {
		config.StringsFile = "strings.json"
	}

	tz := strings.TrimSpace(os.Getenv("APP_TZ"))
	if tz == "" {
		tz = "Europe/Berlin"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TZ %q: %w", tz, err)
	}
	config.Timezone = loc

	return config, nil
}

// loadEnvFile loads environment variables from a .env file.
func loadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			// Remove quotes if present
			value = strings.Trim(value, `"'`)

			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}
