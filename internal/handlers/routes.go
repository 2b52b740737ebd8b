package handlers

import "github.com/gofiber/fiber/v2"

type Handlers struct {
	Analyze *AnalyzeHandler
	Roles   *RoleHandler
	System  *SystemHandler
}

// Register mounts the API routes on router (normally the /api/v1 group).
func Register(router fiber.Router, h Handlers) {
	router.Get("/health", h.System.HandleHealth)

	router.Post("/analyze", h.Analyze.HandleAnalyze)
	router.Post("/analyze/heuristic", h.Analyze.HandleHeuristic)
	router.Get("/roles", h.Roles.HandleListRoles)

	router.Get("/config/ml", h.System.HandleGetMLConfig)
	router.Put("/config/ml", h.System.HandleUpdateMLConfig)
}
