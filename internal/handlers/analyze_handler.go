package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
	"alfredoptarigan/resume-analyzer/internal/services"
)

// AnalysisRunner produces a result for every request.
type AnalysisRunner interface {
	Analyze(ctx context.Context, analysisID string, req *models.AnalysisRequest) *models.AnalysisResult
}

type AnalyzeHandler struct {
	runner   AnalysisRunner
	roleRepo repositories.RoleRepository
	logger   *slog.Logger
}

func NewAnalyzeHandler(runner AnalysisRunner, roleRepo repositories.RoleRepository, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		runner:   runner,
		roleRepo: roleRepo,
		logger:   logger,
	}
}

// HandleAnalyze handles POST /analyze
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	req, err := h.parseRequest(c, true)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	start := time.Now()
	result := h.runner.Analyze(c.UserContext(), id, req)

	return c.JSON(models.AnalyzeResponse{
		ID:         id,
		Result:     result,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// HandleHeuristic handles POST /analyze/heuristic. An unknown role without
// skills is scored against the built-in catalog, which yields a 0% match.
func (h *AnalyzeHandler) HandleHeuristic(c *fiber.Ctx) error {
	req, err := h.parseRequest(c, false)
	if err != nil {
		return err
	}

	start := time.Now()
	var result *models.AnalysisResult
	if len(req.RequiredSkills) > 0 {
		result = services.AnalyzeHeuristic(req.ResumeText, req.RequiredSkills)
	} else {
		result = services.AnalyzeHeuristicForRole(req.ResumeText, req.RoleID)
	}

	return c.JSON(models.AnalyzeResponse{
		ID:         uuid.New().String(),
		Result:     result,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// parseRequest decodes and validates the body. With requireRole set, a role
// that is neither in the catalog nor accompanied by skills is rejected.
func (h *AnalyzeHandler) parseRequest(c *fiber.Ctx, requireRole bool) (*models.AnalysisRequest, error) {
	var req models.AnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
	}

	if err := validate.Struct(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	if err := h.resolveRole(c.UserContext(), &req, requireRole); err != nil {
		return nil, err
	}
	return &req, nil
}

// resolveRole fills the role name and skills from the catalog when the
// caller did not send them.
func (h *AnalyzeHandler) resolveRole(ctx context.Context, req *models.AnalysisRequest, requireRole bool) error {
	if req.RoleName != "" && len(req.RequiredSkills) > 0 {
		return nil
	}

	role, err := h.roleRepo.FindByID(ctx, req.RoleID)
	if err != nil {
		if !errors.Is(err, repositories.ErrRoleNotFound) {
			h.logger.Error("role lookup failed", slog.String("role_id", req.RoleID), slog.String("error", err.Error()))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load role")
		}
		if requireRole && len(req.RequiredSkills) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown role: "+req.RoleID)
		}
		if req.RoleName == "" {
			req.RoleName = req.RoleID
		}
		return nil
	}

	if req.RoleName == "" {
		req.RoleName = role.Name
	}
	if len(req.RequiredSkills) == 0 {
		req.RequiredSkills = role.Skills
	}
	return nil
}
