// Package handlers registers the HTTP surface: slash commands, the OAuth
// callback, interactive actions, the events relay endpoint, health, and
// metrics.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler serves /health for liveness.
type HealthHandler struct {
	logger *slog.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(log *slog.Logger) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{logger: log.With(slog.String("handler", "health"))}
}

// Register mounts GET and HEAD /health on the Echo instance.
func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.HEAD("/health", h.HealthHead)
}

// Health returns the service liveness payload.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "arnold-slack-backend",
	})
}

// HealthHead returns 200 No Content for health checks.
func (h *HealthHandler) HealthHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
