package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"StockPulse/internal/usecase"
	xhttp "StockPulse/pkg/http"
)

type HealthChecker interface {
	Check(ctx context.Context) *usecase.HealthReport
}

// HealthHandler reports dependency health. A degraded service answers 503.
type HealthHandler struct {
	checker HealthChecker
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/api/health", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	rep := h.checker.Check(c.Request().Context())
	if !rep.Healthy() {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, toHealth(rep))
	}
	return xhttp.SuccessResponse(c, toHealth(rep))
}
