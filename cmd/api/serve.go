package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"alfredoptarigan/resume-analyzer/internal/handlers"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	d, err := buildDeps(cmd.Context())
	if err != nil {
		return err
	}

	h := handlers.Handlers{
		Analyze: handlers.NewAnalyzeHandler(d.orchestrator, d.roleRepo, d.logger),
		Roles:   handlers.NewRoleHandler(d.roleRepo, d.ml, d.logger),
		System:  handlers.NewSystemHandler(d.resolver.IsAIConfigured, d.ml, d.ml),
	}

	// Remote analysis can take two ML timeouts plus the LLM retry budget.
	app := fiber.New(fiber.Config{
		AppName:      "Resume Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.Register(app.Group("/api/v1"), h)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Analyzer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/analyze",
				"POST /api/v1/analyze/heuristic",
				"GET /api/v1/roles",
				"GET /api/v1/health",
				"GET /api/v1/config/ml",
				"PUT /api/v1/config/ml",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		d.logger.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			d.logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		}
	}()

	port := d.cfg.Server.Port
	if servePort != "" {
		port = servePort
	}
	addr := fmt.Sprintf(":%s", port)
	d.logger.Info("server starting", slog.String("addr", addr), slog.String("role_store", d.cfg.Server.RoleStore))

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
