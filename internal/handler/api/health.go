package api

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	xhttp "EngineGate/pkg/http"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck is a dependency that must answer before the service reports ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	router DeliveryRouter
	checks []ReadinessCheck
}

func NewHealthHandler(router DeliveryRouter, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{router: router, checks: checks}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/livez", h.Live)
	e.GET("/readyz", h.Ready)
}

func (h *HealthHandler) Live(c echo.Context) error {
	return xhttp.SuccessResponse(c, "alive")
}

// Ready fails while no webhook secret is configured, since every delivery would be refused,
// and while any configured dependency check fails.
func (h *HealthHandler) Ready(c echo.Context) error {
	if !h.router.Ready() {
		return xhttp.ServiceUnavailableResponse(c, "webhook secret missing")
	}
	for _, chk := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
		err := chk.Check(ctx)
		cancel()
		if err != nil {
			return xhttp.ServiceUnavailableResponse(c, fmt.Sprintf("%s: %v", chk.Name, err))
		}
	}
	return xhttp.SuccessResponse(c, "ready")
}
