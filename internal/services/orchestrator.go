package services

import (
	"context"
	"fmt"
	"log/slog"

	"alfredoptarigan/resume-analyzer/internal/models"
)

// MLAnalyzer is the subset of MLServiceClient the orchestrator needs.
type MLAnalyzer interface {
	ProbeHealth(ctx context.Context) bool
	Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error)
}

// Orchestrator picks the analysis backend: ML service when healthy, then
// Gemini when configured, then the local heuristic.
type Orchestrator struct {
	ml           MLAnalyzer
	llm          Analyzer
	aiConfigured func() bool
	logger       *slog.Logger
}

// NewOrchestrator wires the backends. A nil ml or llm removes that stage.
func NewOrchestrator(ml MLAnalyzer, llm Analyzer, aiConfigured func() bool, logger *slog.Logger) *Orchestrator {
	if aiConfigured == nil {
		aiConfigured = func() bool { return llm != nil }
	}
	return &Orchestrator{
		ml:           ml,
		llm:          llm,
		aiConfigured: aiConfigured,
		logger:       logger,
	}
}

// Analyze always returns a result. Remote failures are logged and fall
// through to the next backend.
func (o *Orchestrator) Analyze(ctx context.Context, analysisID string, req *models.AnalysisRequest) *models.AnalysisResult {
	log := o.logger.With(
		slog.String("analysis_id", analysisID),
		slog.String("role_id", req.RoleID),
	)

	if result := o.tryML(ctx, log, req); result != nil {
		return result
	}
	if result := o.tryLLM(ctx, log, req); result != nil {
		return result
	}

	result := AnalyzeHeuristic(req.ResumeText, req.RequiredSkills)
	log.Info("analysis complete",
		slog.String("backend", string(models.BackendHeuristic)),
		slog.Int("match_percentage", result.MatchPercentage),
		slog.Int("ats_score", result.ATSScore),
	)
	return result
}

func (o *Orchestrator) tryML(ctx context.Context, log *slog.Logger, req *models.AnalysisRequest) *models.AnalysisResult {
	backend := slog.String("backend", string(models.BackendMLService))
	if o.ml == nil {
		log.Debug("skipping backend", backend, slog.String("reason", "not wired"))
		return nil
	}

	var healthy bool
	result, err := guarded(models.BackendMLService, func() (*models.AnalysisResult, error) {
		if healthy = o.ml.ProbeHealth(ctx); !healthy {
			return nil, nil
		}
		return o.ml.Analyze(ctx, req)
	})
	if err == nil && !healthy {
		log.Warn("skipping backend", backend, slog.String("reason", "health probe failed"))
		return nil
	}
	if err != nil {
		log.Warn("backend failed, falling back",
			backend,
			slog.String("reason", err.Error()),
			slog.String("kind", KindOf(err).String()),
		)
		return nil
	}
	if result == nil {
		log.Warn("backend failed, falling back", backend, slog.String("reason", "empty result"))
		return nil
	}

	log.Info("analysis complete", backend, slog.Int("match_percentage", result.MatchPercentage))
	return result
}

func (o *Orchestrator) tryLLM(ctx context.Context, log *slog.Logger, req *models.AnalysisRequest) *models.AnalysisResult {
	backend := slog.String("backend", string(models.BackendLLM))
	if o.llm == nil || !o.aiConfigured() {
		log.Info("skipping backend", backend, slog.String("reason", "AI not configured"))
		return nil
	}

	result, err := guarded(models.BackendLLM, func() (*models.AnalysisResult, error) {
		return o.llm.Analyze(ctx, req)
	})
	if err != nil {
		log.Warn("backend failed, falling back",
			backend,
			slog.String("reason", err.Error()),
			slog.String("kind", KindOf(err).String()),
		)
		return nil
	}
	if result == nil {
		log.Warn("backend failed, falling back", backend, slog.String("reason", "empty result"))
		return nil
	}

	log.Info("analysis complete", backend, slog.Int("match_percentage", result.MatchPercentage))
	return result
}

// guarded runs one backend stage, reporting a panic as a KindUnknown error.
func guarded(backend models.Backend, fn func() (*models.AnalysisResult, error)) (result *models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &AnalysisError{
				Kind:    KindUnknown,
				Backend: backend,
				Message: fmt.Sprintf("%s backend failed unexpectedly", backend),
				Err:     fmt.Errorf("panic: %v", r),
			}
		}
	}()
	return fn()
}
