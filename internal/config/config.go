package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Gemini    GeminiConfig
	LLM       LLMConfig
	MLService MLServiceConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	RoleStore string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// GeminiConfig holds the model settings. The API key itself is owned by Resolver.
type GeminiConfig struct {
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	RateLimit   float64
}

type LLMConfig struct {
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

type MLServiceConfig struct {
	URL           string
	Enabled       bool
	Timeout       time.Duration
	HealthTimeout time.Duration
}

const (
	RoleStoreMemory   = "memory"
	RoleStorePostgres = "postgres"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment and defaults")
	}

	return &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "3000"),
			Env:       normalizeEnv(getEnv("ENV", "development")),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			RoleStore: normalizeRoleStore(getEnv("ROLE_STORE", RoleStoreMemory)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_analyzer"),
		},
		Gemini: GeminiConfig{
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
			BaseURL:     getEnv("GEMINI_BASE_URL", ""),
			Temperature: float32(getEnvAsFloat("GEMINI_TEMPERATURE", 0.7)),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", "30s"),
			RateLimit:   getEnvAsFloat("GEMINI_RATE_LIMIT", 2),
		},
		LLM: LLMConfig{
			MaxAttempts:    getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
			RetryBaseDelay: getEnvAsDuration("LLM_RETRY_BASE_DELAY", "2s"),
		},
		MLService: MLServiceConfig{
			URL:           strings.TrimRight(getEnv("ML_SERVICE_URL", "http://localhost:5000"), "/"),
			Enabled:       !isFalseLike(os.Getenv("ML_SERVICE_ENABLED")),
			Timeout:       getEnvAsDuration("ML_SERVICE_TIMEOUT", "30s"),
			HealthTimeout: getEnvAsDuration("ML_HEALTH_TIMEOUT", "2s"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

// isFalseLike reports whether a flag value explicitly disables a feature.
// Unset or unrecognised values count as enabled.
func isFalseLike(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "false", "0", "no", "off", "disabled":
		return true
	default:
		return false
	}
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "test":
		return "test"
	default:
		return "development"
	}
}

func normalizeRoleStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "postgresql", "db":
		return RoleStorePostgres
	default:
		return RoleStoreMemory
	}
}
