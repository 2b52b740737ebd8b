package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/services"
)

type HealthProber interface {
	ProbeHealth(ctx context.Context) bool
}

type MLConfigurator interface {
	Config() services.ServiceConfig
	Configure(u services.ServiceConfigUpdate) services.ServiceConfig
}

type SystemHandler struct {
	aiConfigured func() bool
	prober       HealthProber
	mlConfig     MLConfigurator
}

func NewSystemHandler(aiConfigured func() bool, prober HealthProber, mlConfig MLConfigurator) *SystemHandler {
	return &SystemHandler{
		aiConfigured: aiConfigured,
		prober:       prober,
		mlConfig:     mlConfig,
	}
}

// HandleHealth handles GET /health. The API itself is always "healthy";
// backend availability is reported alongside.
func (h *SystemHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:           "healthy",
		AIConfigured:     h.aiConfigured(),
		MLServiceHealthy: h.prober.ProbeHealth(c.UserContext()),
	})
}

// HandleGetMLConfig handles GET /config/ml
func (h *SystemHandler) HandleGetMLConfig(c *fiber.Ctx) error {
	return c.JSON(h.mlConfig.Config())
}

// HandleUpdateMLConfig handles PUT /config/ml
func (h *SystemHandler) HandleUpdateMLConfig(c *fiber.Ctx) error {
	var req models.MLConfigUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
	}

	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	cfg := h.mlConfig.Configure(services.ServiceConfigUpdate{
		APIURL:        req.APIURL,
		TimeoutMillis: req.TimeoutMillis,
		Enabled:       req.Enabled,
	})
	return c.JSON(cfg)
}
