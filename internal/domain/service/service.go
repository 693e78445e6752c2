package service

import (
	"context"

	"EngineGate/internal/domain/models"
)

// SignalEvaluator turns market snapshots into at most one signal.
type SignalEvaluator interface {
	Evaluate(snapshots []models.MarketState) (models.Signal, bool)
}

// Notifier pushes a short operator message somewhere a human reads it.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// CandleSource returns recent candles for a symbol, oldest first.
type CandleSource interface {
	Candles(ctx context.Context, symbol string, tfSeconds, limit int) ([]models.Candle, error)
}

// WebhookSender posts an alert payload to the webhook endpoint.
type WebhookSender interface {
	Send(ctx context.Context, payload map[string]any) error
}
