package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// GeminiKeyMinLength is the shortest trimmed key accepted as plausible.
const GeminiKeyMinLength = 20

const geminiKeyEnv = "GEMINI_API_KEY"

// LookupFunc reads one environment variable, reporting whether it is set.
type LookupFunc func(key string) (string, bool)

type EnvConfig struct {
	GeminiAPIKey  *string
	IsProduction  bool
	IsDevelopment bool
}

// ResolveEnv reads the AI key and environment flags. A nil lookup reads the
// process environment.
func ResolveEnv(lookup LookupFunc) EnvConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var key *string
	if v, ok := lookup(geminiKeyEnv); ok {
		key = &v
	}

	envName, _ := lookup("ENV")
	env := normalizeEnv(envName)

	return EnvConfig{
		GeminiAPIKey:  key,
		IsProduction:  env == "production",
		IsDevelopment: env != "production",
	}
}

// ValidateAPIKey checks that a Gemini key is present, non-blank and long enough.
func ValidateAPIKey(key *string) models.ValidationResult {
	if key == nil {
		return models.ValidationResult{
			IsValid: false,
			Error:   fmt.Sprintf("Gemini API key is not set. Please add %s to your .env file", geminiKeyEnv),
		}
	}

	trimmed := strings.TrimSpace(*key)
	if len(trimmed) == 0 {
		return models.ValidationResult{
			IsValid: false,
			Error:   "Gemini API key is empty. Please check your .env file",
		}
	}

	if n := utf8.RuneCountInString(trimmed); n < GeminiKeyMinLength {
		return models.ValidationResult{
			IsValid: false,
			Error: fmt.Sprintf(
				"Gemini API key appears invalid (too short). Expected at least %d characters, got %d",
				GeminiKeyMinLength, n,
			),
		}
	}

	var warnings []string
	if trimmed != *key {
		warnings = append(warnings, "Gemini API key has leading or trailing whitespace; it will be trimmed")
	}
	if !strings.HasPrefix(trimmed, "AIza") {
		warnings = append(warnings, "Gemini API key does not start with the usual AIza prefix")
	}

	return models.ValidationResult{IsValid: true, Warnings: warnings}
}

// Resolver resolves the environment and validates the AI key exactly once.
// Later changes to the environment are not observed; there is no invalidation.
type Resolver struct {
	lookup LookupFunc

	once       sync.Once
	env        EnvConfig
	validation models.ValidationResult
}

func NewResolver(lookup LookupFunc) *Resolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Resolver{lookup: lookup}
}

func (r *Resolver) resolve() {
	r.once.Do(func() {
		r.env = ResolveEnv(r.lookup)
		r.validation = ValidateAPIKey(r.env.GeminiAPIKey)
	})
}

func (r *Resolver) Env() EnvConfig {
	r.resolve()
	return r.env
}

func (r *Resolver) Validation() models.ValidationResult {
	r.resolve()
	return r.validation
}

func (r *Resolver) IsAIConfigured() bool {
	return r.Validation().IsValid
}

// APIKey returns the trimmed key, or the validation message as an error.
func (r *Resolver) APIKey() (string, error) {
	r.resolve()
	if !r.validation.IsValid {
		return "", errors.New(r.validation.Error)
	}
	return strings.TrimSpace(*r.env.GeminiAPIKey), nil
}
