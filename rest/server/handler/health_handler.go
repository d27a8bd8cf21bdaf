package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mensylisir/dockmcp/pkg/logger"
)

type HealthHandler struct {
	service Service
	log     *logger.Logger
}

func NewHealthHandler(service Service, log *logger.Logger) *HealthHandler {
	return &HealthHandler{service: service, log: log.With("component", "health-handler")}
}

// Health handles GET /healthz. It is 200 only when the daemon answers the version probe.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	info, err := h.service.Info(c.UserContext())
	if err != nil {
		h.log.Warnf("health check failed: %v", err)
	}
	if info == nil || !info.Reachable {
		return c.Status(fiber.StatusServiceUnavailable).JSON(info)
	}
	return c.JSON(info)
}
