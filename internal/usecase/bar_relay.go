package usecase

import (
	"context"
	"fmt"
	"time"

	"EngineGate/internal/domain/models"
	drepo "EngineGate/internal/domain/repository"
	domsvc "EngineGate/internal/domain/service"
	applogger "EngineGate/pkg/logger"
	"EngineGate/pkg/util"
)

const relayCandleLimit = 3

// RelayConfig drives the bar-close relay.
type RelayConfig struct {
	Key         string
	Engine      string
	Symbol      string
	TFSeconds   int
	Poll        time.Duration
	SLPoints    float64
	ForceSignal string // AUTO, BUY or SELL
	DryRun      bool
	OneShot     bool
}

// BarRelay turns closed exchange candles into webhook alerts, one per bar.
type BarRelay struct {
	cfg     RelayConfig
	candles domsvc.CandleSource
	sender  domsvc.WebhookSender
	cursor  drepo.RelayCursor
	log     *applogger.Logger
	now     func() time.Time
}

func NewBarRelay(cfg RelayConfig, candles domsvc.CandleSource, sender domsvc.WebhookSender, cursor drepo.RelayCursor, l *applogger.Logger) *BarRelay {
	if l == nil {
		l = applogger.Nop()
	}
	if cfg.Poll <= 0 {
		cfg.Poll = 5 * time.Second
	}
	return &BarRelay{cfg: cfg, candles: candles, sender: sender, cursor: cursor, log: l, now: time.Now}
}

// Run polls until ctx is done, or until the first bar is forwarded in one-shot mode.
func (r *BarRelay) Run(ctx context.Context) error {
	r.log.Info("relay started",
		applogger.String("symbol", r.cfg.Symbol),
		applogger.Int("tf_seconds", r.cfg.TFSeconds),
		applogger.String("engine", r.cfg.Engine),
		applogger.Bool("dry_run", r.cfg.DryRun),
		applogger.String("force_signal", r.cfg.ForceSignal),
	)
	ticker := time.NewTicker(r.cfg.Poll)
	defer ticker.Stop()

	for {
		sent, err := r.Step(ctx)
		if err != nil {
			r.log.Warn("relay step failed", applogger.Error(err))
		}
		if sent && r.cfg.OneShot {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Step forwards the latest closed bar if it has not been sent yet.
func (r *BarRelay) Step(ctx context.Context) (bool, error) {
	cs, err := r.candles.Candles(ctx, r.cfg.Symbol, r.cfg.TFSeconds, relayCandleLimit)
	if err != nil {
		return false, fmt.Errorf("fetch candles: %w", err)
	}
	bar, ok := r.lastClosed(cs)
	if !ok {
		return false, nil
	}
	barTS := bar.OpenTime.UnixMilli()

	last, err := r.cursor.LastSent(ctx)
	if err != nil {
		return false, err
	}
	if barTS <= last {
		return false, nil
	}

	payload := r.Payload(bar)
	if r.cfg.DryRun {
		r.log.Info("relay dry run", applogger.Any("payload", redactKey(payload)))
	} else {
		if err := r.sender.Send(ctx, payload); err != nil {
			return false, fmt.Errorf("send bar %d: %w", barTS, err)
		}
		r.log.Info("relay sent",
			applogger.String("signal", payload["signal"].(string)),
			applogger.Float("close", bar.Close),
			applogger.Int64("bar_ts", barTS),
		)
	}

	if err := r.cursor.MarkSent(ctx, barTS); err != nil {
		return true, fmt.Errorf("save cursor: %w", err)
	}
	return true, nil
}

// Payload builds the alert for one bar. The stop sits SLPoints away from the close.
func (r *BarRelay) Payload(bar models.Candle) map[string]any {
	signal := r.cfg.ForceSignal
	if signal != "BUY" && signal != "SELL" {
		signal = "SELL"
		if bar.Close >= bar.Open {
			signal = "BUY"
		}
	}
	sl := bar.Close + r.cfg.SLPoints
	if signal == "BUY" {
		sl = bar.Close - r.cfg.SLPoints
	}
	return map[string]any{
		"key":    r.cfg.Key,
		"engine": r.cfg.Engine,
		"signal": signal,
		"symbol": r.cfg.Symbol,
		"tf":     util.TimeframeLabel(r.cfg.TFSeconds),
		"price":  bar.Close,
		"sl":     sl,
		"tp":     nil,
		"reason": fmt.Sprintf("bitget bar-close ts=%d", bar.OpenTime.UnixMilli()),
		"_ts":    r.now().UTC().Format(time.RFC3339),
	}
}

// lastClosed returns the newest candle whose period has ended with a usable close.
func (r *BarRelay) lastClosed(cs []models.Candle) (models.Candle, bool) {
	period := time.Duration(r.cfg.TFSeconds) * time.Second
	now := r.now()
	for i := len(cs) - 1; i >= 0; i-- {
		c := cs[i]
		if c.OpenTime.IsZero() || c.Close <= 0 {
			continue
		}
		if !c.OpenTime.Add(period).After(now) {
			return c, true
		}
	}
	return models.Candle{}, false
}

func redactKey(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	if _, ok := out["key"]; ok {
		out["key"] = "***"
	}
	return out
}
