package repository

import (
	"context"

	"EngineGate/internal/domain/models"
)

// UpdateFunc inspects the current state and edits it in place.
// Returning commit=false leaves the stored record untouched.
type UpdateFunc func(state *models.RouterState) (commit bool, err error)

// StateStore persists the router lock record.
type StateStore interface {
	// Load returns the empty state when nothing has been stored yet.
	Load(ctx context.Context) (models.RouterState, error)
	// Update runs fn inside the store's critical section.
	Update(ctx context.Context, fn UpdateFunc) error
	Close() error
}

// AuditTrail is the append-only record of deliveries and accepted events.
type AuditTrail interface {
	AppendRaw(ctx context.Context, rec models.RawRecord) error
	AppendJournal(ctx context.Context, entry models.JournalEntry) error
	Close() error
}

// RelayCursor remembers the last bar forwarded by the relay.
type RelayCursor interface {
	LastSent(ctx context.Context) (int64, error)
	MarkSent(ctx context.Context, barTS int64) error
}

type Metrics interface {
	RecordDecision(outcome, engine string)
	RecordEvaluation(engine string)
	RecordActiveEngine(engine string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
