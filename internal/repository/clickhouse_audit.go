package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"EngineGate/internal/domain/models"
	"EngineGate/internal/domain/repository"
	"EngineGate/pkg/clickhouse"
)

// ClickHouseAuditTrail stores raw deliveries and accepted events in two tables:
// <table> and <table>_accepted.
type ClickHouseAuditTrail struct {
	client *clickhouse.Client
	table  string
}

func NewClickHouseAuditTrail(client *clickhouse.Client, table string) *ClickHouseAuditTrail {
	return &ClickHouseAuditTrail{client: client, table: table}
}

// Schema returns the idempotent DDL for the audit tables.
func (s *ClickHouseAuditTrail) Schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime64(3, 'UTC'),
			delivery_id String,
			source LowCardinality(String),
			remote String,
			body String
		) ENGINE = MergeTree ORDER BY (ts, delivery_id)`, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_accepted (
			ts DateTime64(3, 'UTC'),
			delivery_id String,
			engine LowCardinality(String),
			signal LowCardinality(String),
			symbol LowCardinality(String),
			tf String,
			price Float64,
			tp Float64,
			sl Float64,
			reason String,
			payload String
		) ENGINE = MergeTree ORDER BY (engine, ts)`, s.table),
	}
}

// Init creates the tables if needed.
func (s *ClickHouseAuditTrail) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, s.Schema())
}

func (s *ClickHouseAuditTrail) AppendRaw(ctx context.Context, rec models.RawRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, delivery_id, source, remote, body) VALUES (?, ?, ?, ?, ?)", s.table)
	return s.client.Exec(ctx, q, rec.ReceivedAt.UTC(), rec.DeliveryID, rec.Source, rec.Remote, string(rec.Body))
}

func (s *ClickHouseAuditTrail) AppendJournal(ctx context.Context, entry models.JournalEntry) error {
	ev := entry.Event
	payload, err := json.Marshal(redactPayload(ev.Payload))
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s_accepted (ts, delivery_id, engine, signal, symbol, tf, price, tp, sl, reason, payload) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	return s.client.Exec(ctx, q,
		entry.At.UTC(), ev.DeliveryID, string(ev.Engine), ev.Signal, ev.Symbol, ev.TF,
		ev.Price, ev.TP, ev.SL, ev.Reason, string(payload),
	)
}

// Health pings the server.
func (s *ClickHouseAuditTrail) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *ClickHouseAuditTrail) Close() error {
	return s.client.Close()
}

var _ repository.AuditTrail = (*ClickHouseAuditTrail)(nil)
