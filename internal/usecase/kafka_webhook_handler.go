package usecase

import (
	"context"
	"errors"
	"fmt"

	"EngineGate/internal/domain/models"
	"EngineGate/pkg/kafka"
	applogger "EngineGate/pkg/logger"
)

// KafkaWebhookHandler routes alert payloads delivered through a topic.
type KafkaWebhookHandler struct {
	topic  string
	router *EngineRouter
	log    *applogger.Logger
}

func NewKafkaWebhookHandler(topic string, router *EngineRouter, l *applogger.Logger) *KafkaWebhookHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaWebhookHandler{topic: topic, router: router, log: l}
}

func (h *KafkaWebhookHandler) Topic() string { return h.topic }

// Handle returns an error only for state store failures so the consumer retries.
// Refused deliveries are final and are committed.
func (h *KafkaWebhookHandler) Handle(ctx context.Context, msg kafka.Message) error {
	_, err := h.router.Route(ctx, models.Delivery{
		Source: "kafka",
		Remote: fmt.Sprintf("%s/%d@%d", msg.Topic, msg.Partition, msg.Offset),
		Body:   msg.Value,
	})
	var re *models.RouteError
	if errors.As(err, &re) {
		return nil
	}
	return err
}

var _ kafka.MessageHandler = (*KafkaWebhookHandler)(nil)
