package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"EngineGate/internal/domain/models"
	xhttp "EngineGate/pkg/http"
	applogger "EngineGate/pkg/logger"
)

// DeliveryRouter is the part of the engine router the HTTP layer needs.
type DeliveryRouter interface {
	Route(ctx context.Context, d models.Delivery) (models.NormalizedEvent, error)
	State(ctx context.Context) (models.RouterState, error)
	Ready() bool
}

// WebhookHandler receives chart alerts.
type WebhookHandler struct {
	path    string
	router  DeliveryRouter
	log     *applogger.Logger
	maxBody int64
}

type WebhookOption func(*WebhookHandler)

// WithMaxBody caps the body size. Longer bodies are logged truncated and refused.
func WithMaxBody(n int64) WebhookOption {
	return func(h *WebhookHandler) { h.maxBody = n }
}

func NewWebhookHandler(path string, router DeliveryRouter, l *applogger.Logger, opts ...WebhookOption) *WebhookHandler {
	if l == nil {
		l = applogger.Nop()
	}
	h := &WebhookHandler{path: path, router: router, log: l}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST(h.path, h.Receive)
}

// Receive hands the untouched body to the router and maps refusals to HTTP errors.
// Bodies that fail to read or exceed the cap still reach the router, which logs them.
func (h *WebhookHandler) Receive(c echo.Context) error {
	d := models.Delivery{Source: "http", Remote: c.RealIP()}
	d.Body, d.Incomplete = h.readBody(c.Request().Body)

	_, err := h.router.Route(c.Request().Context(), d)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *WebhookHandler) readBody(r io.Reader) ([]byte, *models.RouteError) {
	if h.maxBody > 0 {
		r = io.LimitReader(r, h.maxBody+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return body, models.NewMalformedBody(fmt.Sprintf("read body: %v", err))
	}
	if h.maxBody > 0 && int64(len(body)) > h.maxBody {
		return body[:h.maxBody], models.NewBodyTooLarge(h.maxBody)
	}
	return body, nil
}

func toAppError(err error) *xhttp.AppError {
	var re *models.RouteError
	if !errors.As(err, &re) {
		return xhttp.InternalError("router state unavailable").WithError(err)
	}
	switch re.Kind {
	case models.RejectMalformedBody:
		return xhttp.BadRequestError(re.Message)
	case models.RejectBodyTooLarge:
		return xhttp.PayloadTooLargeError(re.Message)
	case models.RejectInvalidCredential:
		return xhttp.ForbiddenError("ERR_INVALID_SECRET", re.Message)
	case models.RejectEngineConflict:
		return xhttp.ConflictError("ERR_ENGINE_LOCKED", re.Message).
			WithParam("active_engine", string(re.ActiveEngine)).
			WithParam("engine", string(re.Incoming))
	case models.RejectMisconfigured:
		return xhttp.MisconfiguredError(re.Message)
	default:
		return xhttp.InternalError(re.Message)
	}
}
