package handler

import (
	"github.com/gofiber/fiber/v2"
)

// ReadinessChecker reports whether the service can recognize faces yet.
type ReadinessChecker interface {
	Ready() bool
}

type HealthHandler struct {
	checker ReadinessChecker
}

func NewHealthHandler(checker ReadinessChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.checker != nil && !h.checker.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "not ready",
		})
	}

	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
