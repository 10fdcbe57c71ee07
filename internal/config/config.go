// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	// Game economy.
	SessionRewardPoints int
	UnlockCostPoints    int

	// Focus session bounds (minutes).
	MinSessionMinutes     int
	DefaultSessionMinutes int

	// Generative asset service. Empty API key disables the cinematic
	// evolution pipeline; the skip path still commits evolutions.
	GeminiAPIKey      string
	VideoPollInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	pollSeconds := getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 5)
	if pollSeconds <= 0 {
		pollSeconds = 5
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		FrontendURL:           getEnv("FRONTEND_URL", ""),
		DBPath:                getEnv("DB_PATH", "./data/haven.db"),
		SessionRewardPoints:   getEnvInt("SESSION_REWARD_POINTS", 10),
		UnlockCostPoints:      getEnvInt("UNLOCK_COST_POINTS", 100),
		MinSessionMinutes:     getEnvInt("MIN_SESSION_MINUTES", 5),
		DefaultSessionMinutes: getEnvInt("DEFAULT_SESSION_MINUTES", 25),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		VideoPollInterval:     time.Duration(pollSeconds) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionRewardPoints <= 0 {
		return fmt.Errorf("SESSION_REWARD_POINTS must be > 0")
	}
	if c.UnlockCostPoints <= 0 {
		return fmt.Errorf("UNLOCK_COST_POINTS must be > 0")
	}
	if c.MinSessionMinutes <= 0 {
		return fmt.Errorf("MIN_SESSION_MINUTES must be > 0")
	}
	if c.DefaultSessionMinutes < c.MinSessionMinutes {
		return fmt.Errorf("DEFAULT_SESSION_MINUTES must be >= MIN_SESSION_MINUTES")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AIEnabled reports whether the generative asset service is configured.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
