package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/mcp"
	"github.com/mensylisir/dockmcp/rest/server/handler"
)

// SetupRouter builds the fiber application with every route registered.
func SetupRouter(base context.Context, cfg *Config, svc handler.Service, mcpServer *mcp.Server, log *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               common.AppName,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          handler.FiberErrorHandler,
	})
	app.Use(recover.New())
	app.Use(baseContext(base))
	app.Use(requestLogger(log))

	health := handler.NewHealthHandler(svc, log)
	app.Get("/healthz", health.Health)

	mcpHandler := handler.NewMCPHandler(base, mcpServer, log)
	app.Post("/mcp", mcpHandler.Post)
	app.Delete("/mcp", mcpHandler.Delete)

	containerHandler := handler.NewContainerHandler(svc, log)
	v1 := app.Group("/api").Group("/v1")
	containers := v1.Group("/containers")
	containers.Get("/", containerHandler.ListContainers)
	containers.Get("/:id/logs", containerHandler.GetContainerLogs)
	containers.Get("/:id/inspect", containerHandler.InspectContainer)
	containers.Get("/:id/stats", containerHandler.GetContainerStats)
	containers.Post("/:id/exec", containerHandler.ExecInContainer)

	return app
}

// baseContext ties every request to base so that shutdown cancels running operations.
func baseContext(base context.Context) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(base)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func requestLogger(log *logger.Logger) fiber.Handler {
	log = log.With("component", "http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler write the response so the status below is final
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		log.Debugf("%s %s -> %d (%s)", c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start).Round(time.Millisecond))
		return nil
	}
}
