package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arnoldlabs/arnold/internal/metrics"
)

// MetricsHandler exposes the Prometheus scrape endpoint.
type MetricsHandler struct {
	gatherer prometheus.Gatherer
}

// NewMetricsHandler creates a MetricsHandler over the given gatherer.
func NewMetricsHandler(gatherer prometheus.Gatherer) *MetricsHandler {
	return &MetricsHandler{gatherer: gatherer}
}

// Register mounts GET /metrics on the Echo instance.
func (h *MetricsHandler) Register(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(h.gatherer)))
}
