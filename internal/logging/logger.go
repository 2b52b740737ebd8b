// Package logging builds the process logger and keeps secrets out of log records.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/models"
)

const maskPrefixLen = 15

// New returns a JSON logger in production and a text logger otherwise.
func New(env, level string) *slog.Logger {
	return NewWithWriter(os.Stderr, env, level)
}

func NewWithWriter(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if env == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MaskAPIKey renders a key safely: only the first 15 characters survive.
func MaskAPIKey(key *string) string {
	if key == nil || *key == "" {
		return "not set"
	}
	if len(*key) < maskPrefixLen {
		return "***"
	}
	return (*key)[:maskPrefixLen] + "..."
}

// LogEnvConfig writes a single summary record of the AI configuration.
func LogEnvConfig(logger *slog.Logger, env config.EnvConfig, validation models.ValidationResult) {
	mode := "development"
	if env.IsProduction {
		mode = "production"
	}

	keyLen := 0
	if env.GeminiAPIKey != nil {
		keyLen = len(*env.GeminiAPIKey)
	}

	attrs := []any{
		slog.String("mode", mode),
		slog.Bool("key_present", env.GeminiAPIKey != nil),
		slog.Int("key_length", keyLen),
		slog.String("key_prefix", MaskAPIKey(env.GeminiAPIKey)),
		slog.Bool("valid", validation.IsValid),
	}
	if validation.Error != "" {
		attrs = append(attrs, slog.String("error", validation.Error))
	}
	if len(validation.Warnings) > 0 {
		attrs = append(attrs, slog.Any("warnings", validation.Warnings))
	}

	if validation.IsValid {
		logger.Info("environment configuration", attrs...)
		return
	}
	logger.Warn("environment configuration", attrs...)
}
