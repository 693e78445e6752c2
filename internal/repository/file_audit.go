package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"EngineGate/internal/domain/models"
	"EngineGate/internal/domain/repository"
)

// rawLine is one JSONL record of the raw log.
type rawLine struct {
	TS         string `json:"ts"`
	DeliveryID string `json:"delivery_id"`
	Source     string `json:"source,omitempty"`
	Remote     string `json:"remote,omitempty"`
	// Payload is the body as received: embedded JSON when it parses, a string otherwise.
	Payload   json.RawMessage `json:"payload"`
	Truncated bool            `json:"truncated,omitempty"`
}

// FileAuditTrail writes the raw log as JSON lines and the journal as Markdown.
// Both files are opened in append mode and never truncated.
type FileAuditTrail struct {
	loc *time.Location

	rawMu sync.Mutex
	raw   *os.File

	journalMu sync.Mutex
	journal   *os.File
}

func NewFileAuditTrail(rawPath, journalPath string, loc *time.Location) (*FileAuditTrail, error) {
	if loc == nil {
		loc = time.UTC
	}
	raw, err := openAppend(rawPath)
	if err != nil {
		return nil, fmt.Errorf("raw log: %w", err)
	}
	journal, err := openAppend(journalPath)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("journal: %w", err)
	}
	a := &FileAuditTrail{loc: loc, raw: raw, journal: journal}
	if err := a.ensureJournalHeader(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *FileAuditTrail) AppendRaw(ctx context.Context, rec models.RawRecord) error {
	line, err := json.Marshal(rawLine{
		TS:         rec.ReceivedAt.In(a.loc).Format(time.RFC3339Nano),
		DeliveryID: rec.DeliveryID,
		Source:     rec.Source,
		Remote:     rec.Remote,
		Payload:    rawPayload(rec.Body),
		Truncated:  rec.Truncated,
	})
	if err != nil {
		return fmt.Errorf("encode raw record: %w", err)
	}
	line = append(line, '\n')

	a.rawMu.Lock()
	defer a.rawMu.Unlock()
	if _, err := a.raw.Write(line); err != nil {
		return fmt.Errorf("append raw log: %w", err)
	}
	return nil
}

func (a *FileAuditTrail) AppendJournal(ctx context.Context, entry models.JournalEntry) error {
	block := RenderJournalEntry(entry, a.loc)

	a.journalMu.Lock()
	defer a.journalMu.Unlock()
	if _, err := a.journal.WriteString(block); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

func (a *FileAuditTrail) Close() error {
	var firstErr error
	a.rawMu.Lock()
	if a.raw != nil {
		firstErr = a.raw.Close()
		a.raw = nil
	}
	a.rawMu.Unlock()

	a.journalMu.Lock()
	if a.journal != nil {
		if err := a.journal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.journal = nil
	}
	a.journalMu.Unlock()
	return firstErr
}

func (a *FileAuditTrail) ensureJournalHeader() error {
	a.journalMu.Lock()
	defer a.journalMu.Unlock()
	info, err := a.journal.Stat()
	if err != nil {
		return fmt.Errorf("stat journal: %w", err)
	}
	if info.Size() > 0 {
		return nil
	}
	if _, err := a.journal.WriteString(journalHeader); err != nil {
		return fmt.Errorf("write journal header: %w", err)
	}
	return nil
}

// rawPayload keeps valid JSON as-is (compacted to one line) and quotes anything else.
func rawPayload(body []byte) json.RawMessage {
	if json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, body); err == nil {
			return buf.Bytes()
		}
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}

var _ repository.AuditTrail = (*FileAuditTrail)(nil)
