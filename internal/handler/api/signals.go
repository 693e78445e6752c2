package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"EngineGate/internal/domain/models"
	"EngineGate/internal/services/rules"
	xhttp "EngineGate/pkg/http"
	applogger "EngineGate/pkg/logger"
)

// Evaluator runs the rule engine over snapshots.
type Evaluator interface {
	Evaluate(snapshots []models.MarketState) (models.Signal, bool)
}

// LockSettings is echoed back by the state endpoint.
type LockSettings struct {
	Enabled    bool
	Aggressive []string
}

// SignalsHandler serves rule evaluation and router state.
type SignalsHandler struct {
	evaluator Evaluator
	router    DeliveryRouter
	lock      LockSettings
	log       *applogger.Logger
}

func NewSignalsHandler(evaluator Evaluator, router DeliveryRouter, lock LockSettings, l *applogger.Logger) *SignalsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &SignalsHandler{evaluator: evaluator, router: router, lock: lock, log: l}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/evaluate", h.Evaluate)
	g.GET("/state", h.State)
}

func (h *SignalsHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snapshots := make([]models.MarketState, 0, len(req.Snapshots))
	for _, s := range req.Snapshots {
		snapshots = append(snapshots, s.ToMarketState())
	}
	sig, ok := h.evaluator.Evaluate(snapshots)

	res := models.EvaluateResponse{Summary: rules.Render(sig, ok)}
	if ok {
		res.Signal = toSignalResponse(sig)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsHandler) State(c echo.Context) error {
	st, err := h.router.State(c.Request().Context())
	if err != nil {
		h.log.Error("router state load failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("router state unavailable").WithError(err))
	}

	res := models.RouterStateResponse{
		EngineLock:        h.lock.Enabled,
		AggressiveEngines: h.lock.Aggressive,
	}
	if st.HasActive() {
		e := string(st.ActiveEngine)
		res.ActiveEngine = &e
	}
	if st.UpdatedAt != nil {
		ts := st.UpdatedAt.Format(time.RFC3339Nano)
		res.UpdatedAt = &ts
	}
	return xhttp.SuccessResponse(c, res)
}

func toSignalResponse(sig models.Signal) *models.SignalResponse {
	return &models.SignalResponse{
		Engine:            string(sig.Engine),
		Symbol:            sig.Symbol,
		Side:              string(sig.Side),
		Reason:            sig.Reason,
		EntryLow:          sig.EntryZone.Low,
		EntryHigh:         sig.EntryZone.High,
		InvalidationLevel: sig.InvalidationLevel,
		InvalidationTF:    string(sig.InvalidationTF),
		TakeProfits:       append([]float64{}, sig.TakeProfits...),
	}
}
