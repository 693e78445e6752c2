package repository

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"EngineGate/internal/domain/models"
	"EngineGate/internal/domain/repository"
	pkgkafka "EngineGate/pkg/kafka"
)

// KafkaAuditTrail mirrors audit records to a topic, keyed by delivery id.
type KafkaAuditTrail struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAuditTrail(producer *pkgkafka.Producer, topic string) *KafkaAuditTrail {
	return &KafkaAuditTrail{producer: producer, topic: topic}
}

type kafkaRawRecord struct {
	DeliveryID string          `json:"delivery_id"`
	TS         time.Time       `json:"ts"`
	Source     string          `json:"source,omitempty"`
	Remote     string          `json:"remote,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Truncated  bool            `json:"truncated,omitempty"`
}

type kafkaJournalRecord struct {
	DeliveryID string         `json:"delivery_id"`
	TS         time.Time      `json:"ts"`
	Engine     string         `json:"engine"`
	Signal     string         `json:"signal"`
	Symbol     string         `json:"symbol"`
	TF         string         `json:"tf"`
	Price      float64        `json:"price"`
	TP         float64        `json:"tp"`
	SL         float64        `json:"sl"`
	Reason     string         `json:"reason,omitempty"`
	Payload    map[string]any `json:"payload"`
}

func (k *KafkaAuditTrail) AppendRaw(ctx context.Context, rec models.RawRecord) error {
	return k.producer.Publish(ctx, k.topic, []byte(rec.DeliveryID), kafkaRawRecord{
		DeliveryID: rec.DeliveryID,
		TS:         rec.ReceivedAt.UTC(),
		Source:     rec.Source,
		Remote:     rec.Remote,
		Payload:    rawPayload(rec.Body),
		Truncated:  rec.Truncated,
	}, kindHeader("raw"))
}

func (k *KafkaAuditTrail) AppendJournal(ctx context.Context, entry models.JournalEntry) error {
	ev := entry.Event
	return k.producer.Publish(ctx, k.topic, []byte(ev.DeliveryID), kafkaJournalRecord{
		DeliveryID: ev.DeliveryID,
		TS:         entry.At.UTC(),
		Engine:     string(ev.Engine),
		Signal:     ev.Signal,
		Symbol:     ev.Symbol,
		TF:         ev.TF,
		Price:      ev.Price,
		TP:         ev.TP,
		SL:         ev.SL,
		Reason:     ev.Reason,
		Payload:    redactPayload(ev.Payload),
	}, kindHeader("accepted"))
}

func (k *KafkaAuditTrail) Close() error {
	return k.producer.Close()
}

func kindHeader(kind string) kafkago.Header {
	return kafkago.Header{Key: "kind", Value: []byte(kind)}
}

var _ repository.AuditTrail = (*KafkaAuditTrail)(nil)
