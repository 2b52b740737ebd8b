package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
)

type MLRoleSource interface {
	Roles(ctx context.Context) (map[string][]string, error)
}

type RoleHandler struct {
	roleRepo repositories.RoleRepository
	ml       MLRoleSource
	logger   *slog.Logger
}

func NewRoleHandler(roleRepo repositories.RoleRepository, ml MLRoleSource, logger *slog.Logger) *RoleHandler {
	return &RoleHandler{
		roleRepo: roleRepo,
		ml:       ml,
		logger:   logger,
	}
}

// HandleListRoles handles GET /roles. With ?source=ml the ML service's
// catalog is returned instead.
func (h *RoleHandler) HandleListRoles(c *fiber.Ctx) error {
	if c.Query("source") == "ml" {
		roles, err := h.ml.Roles(c.UserContext())
		if err != nil {
			h.logger.Warn("ML role catalog unavailable", slog.String("error", err.Error()))
			return fiber.NewError(fiber.StatusBadGateway, "Failed to fetch roles from ML service")
		}
		return c.JSON(models.MLRolesResponse{Roles: roles})
	}

	roles, err := h.roleRepo.FindAll(c.UserContext())
	if err != nil {
		h.logger.Error("failed to list roles", slog.String("error", err.Error()))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list roles")
	}
	return c.JSON(models.RolesResponse{Roles: roles})
}
