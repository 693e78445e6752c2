package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"EngineGate/internal/domain/repository"
)

// FileRelayCursor persists the open time (unix ms) of the last bar the relay forwarded.
type FileRelayCursor struct {
	path string
	mu   sync.Mutex
}

type relayCursorRecord struct {
	LastTSMs  int64  `json:"last_ts_ms"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func NewFileRelayCursor(path string) *FileRelayCursor {
	return &FileRelayCursor{path: path}
}

// LastSent returns 0 when nothing was sent yet or the file is unreadable.
func (c *FileRelayCursor) LastSent(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read relay cursor: %w", err)
	}
	var rec relayCursorRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, nil
	}
	return rec.LastTSMs, nil
}

func (c *FileRelayCursor) MarkSent(ctx context.Context, barTS int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(relayCursorRecord{
		LastTSMs:  barTS,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(c.path, data)
}

var _ repository.RelayCursor = (*FileRelayCursor)(nil)
