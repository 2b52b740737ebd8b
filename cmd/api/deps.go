package main

import (
	"context"
	"fmt"
	"log/slog"

	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/logging"
	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
	"alfredoptarigan/resume-analyzer/internal/services"
)

// deps holds everything the subcommands share.
type deps struct {
	cfg          *config.Config
	logger       *slog.Logger
	resolver     *config.Resolver
	roleRepo     repositories.RoleRepository
	ml           *services.MLServiceClient
	orchestrator *services.Orchestrator
}

func buildDeps(ctx context.Context) (*deps, error) {
	cfg := config.Load()

	logger := logging.New(cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	resolver := config.NewResolver(nil)
	logging.LogEnvConfig(logger, resolver.Env(), resolver.Validation())

	roleRepo, err := newRoleRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ml := services.NewMLServiceClient(services.ServiceConfig{
		APIURL:        cfg.MLService.URL,
		TimeoutMillis: int(cfg.MLService.Timeout.Milliseconds()),
		Enabled:       cfg.MLService.Enabled,
	}, cfg.MLService.HealthTimeout, logger)

	gemini := services.NewGeminiService(resolver, services.GeminiOptions{
		Model:     cfg.Gemini.Model,
		BaseURL:   cfg.Gemini.BaseURL,
		Timeout:   cfg.Gemini.Timeout,
		RateLimit: cfg.Gemini.RateLimit,
		RawKey:    resolver.Env().GeminiAPIKey,
	}, logger)

	llm := services.NewLLMAnalyzer(gemini, services.RetryPolicy{
		MaxAttempts: cfg.LLM.MaxAttempts,
		BaseDelay:   cfg.LLM.RetryBaseDelay,
	}, cfg.Gemini.Temperature, logger)

	return &deps{
		cfg:          cfg,
		logger:       logger,
		resolver:     resolver,
		roleRepo:     roleRepo,
		ml:           ml,
		orchestrator: services.NewOrchestrator(ml, llm, resolver.IsAIConfigured, logger),
	}, nil
}

func newRoleRepository(ctx context.Context, cfg *config.Config) (repositories.RoleRepository, error) {
	if cfg.Server.RoleStore != config.RoleStorePostgres {
		return repositories.NewMemoryRoleRepository(models.DefaultRoles()...), nil
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := repositories.NewRoleRepository(db)
	if err := repo.Seed(ctx, models.DefaultRoles()); err != nil {
		return nil, err
	}
	return repo, nil
}
