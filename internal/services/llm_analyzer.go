package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// Analyzer is implemented by every remote analysis backend.
type Analyzer interface {
	Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error)
}

type LLMAnalyzer struct {
	gemini        GeminiService
	promptBuilder *PromptBuilder
	policy        RetryPolicy
	temperature   float32
	logger        *slog.Logger
}

func NewLLMAnalyzer(gemini GeminiService, policy RetryPolicy, temperature float32, logger *slog.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		gemini:        gemini,
		promptBuilder: NewPromptBuilder(),
		policy:        policy,
		temperature:   temperature,
		logger:        logger.With(slog.String("backend", string(models.BackendLLM))),
	}
}

// Analyze asks Gemini for a structured analysis, retrying transient failures.
// Failures are returned as *AnalysisError.
func (a *LLMAnalyzer) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	a.logger.Info("starting AI analysis",
		slog.String("role_name", req.RoleName),
		slog.Int("skill_count", len(req.RequiredSkills)),
	)

	prompt := a.promptBuilder.BuildResumeAnalysisPrompt(req.ResumeText, req.RoleName, req.RequiredSkills)

	result, err := RetryDo(ctx, a.policy, a.logger, func(ctx context.Context, attempt int) (*models.AnalysisResult, error) {
		text, err := a.gemini.GenerateText(ctx, prompt, a.temperature)
		if err != nil {
			ae := classifyGeminiError(err)
			a.logAttemptError(attempt, ae)
			return nil, ae
		}

		result, err := parseLLMResponse(text)
		if err != nil {
			a.logAttemptError(attempt, err)
			return nil, err
		}

		a.logger.Info("AI analysis complete",
			slog.Int("match_percentage", result.MatchPercentage),
			slog.Int("ats_score", result.ATSScore),
			slog.Int("attempt", attempt),
		)
		return result, nil
	})
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	return result, nil
}

func (a *LLMAnalyzer) logAttemptError(attempt int, err error) {
	attrs := []any{
		slog.Int("attempt", attempt),
		slog.Int("max_attempts", a.policy.MaxAttempts),
		slog.String("kind", KindOf(err).String()),
		slog.String("message", err.Error()),
	}
	var ae *AnalysisError
	if errors.As(err, &ae) && ae.Err != nil {
		attrs = append(attrs, slog.String("cause", ae.Err.Error()))
	}
	a.logger.Error("AI analysis attempt failed", attrs...)
}

// stripCodeFences removes a leading ```json or ``` marker and a trailing ```.
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

func parseLLMResponse(text string) (*models.AnalysisResult, error) {
	cleaned := stripCodeFences(text)

	if err := validateAnalysisJSON(cleaned); err != nil {
		return nil, llmError(KindResponseFormat, msgGeminiParse, err)
	}

	var raw remoteAnalysis
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, llmError(KindResponseFormat, msgGeminiParse, err)
	}

	return raw.toResult(models.BackendLLM), nil
}
