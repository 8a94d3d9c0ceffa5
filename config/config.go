package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerHost string
	ServerPort string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Inference provider configuration
	LLMAPIKey      string
	LLMAPIURL      string
	LLMModel       string
	LLMVisionModel string

	// Generation pipeline configuration
	GenerateTimeout time.Duration
	FreeDailyLimit  int
	GuestDailyLimit int

	// SMTP configuration for notifications
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
}

// Load creates a new Config instance from environment variables.
// The inference API key may be supplied directly or via a key file,
// which is how Docker secrets are mounted in production.
func Load() (*Config, error) {
	cfg := &Config{
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "pantrychef"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "pantrychef"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisURL:      os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		LLMAPIURL:      getEnv("LLM_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		LLMModel:       getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMVisionModel: getEnv("LLM_VISION_MODEL", "llama-3.2-11b-vision-preview"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromEmail:    getEnv("EMAIL_FROM", "noreply@pantrychef.app"),
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			cfg.RedisDB = db
		}
	}

	apiKey, err := loadAPIKey()
	if err != nil {
		return nil, err
	}
	cfg.LLMAPIKey = apiKey

	cfg.GenerateTimeout = getEnvDuration("GENERATE_TIMEOUT", 120*time.Second)
	cfg.FreeDailyLimit = getEnvInt("FREE_DAILY_LIMIT", 10)
	cfg.GuestDailyLimit = getEnvInt("GUEST_DAILY_LIMIT", 3)

	return cfg, nil
}

// loadAPIKey reads the inference API key from LLM_API_KEY or LLM_API_KEY_FILE
func loadAPIKey() (string, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey != "" {
		return apiKey, nil
	}

	apiKeyFile := os.Getenv("LLM_API_KEY_FILE")
	if apiKeyFile == "" {
		return "", fmt.Errorf("LLM_API_KEY or LLM_API_KEY_FILE must be set")
	}

	apiKeyBytes, err := os.ReadFile(apiKeyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}

	apiKey = strings.TrimSpace(string(apiKeyBytes))
	if apiKey == "" {
		return "", fmt.Errorf("API key file is empty")
	}
	return apiKey, nil
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
