package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"EngineGate/internal/domain/models"
	"EngineGate/internal/domain/repository"
	applogger "EngineGate/pkg/logger"
)

// FileStateStore keeps the router state in a single JSON file.
// Updates are serialized by an in-process mutex; use the Redis store when
// several processes share one lock.
type FileStateStore struct {
	path string
	log  *applogger.Logger
	mu   sync.Mutex
}

func NewFileStateStore(path string, l *applogger.Logger) *FileStateStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &FileStateStore{path: path, log: l}
}

func (s *FileStateStore) Load(ctx context.Context) (models.RouterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(), nil
}

func (s *FileStateStore) Update(ctx context.Context, fn repository.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.readLocked()
	commit, err := fn(&st)
	if err != nil {
		return err
	}
	if !commit {
		return nil
	}

	data, err := encodeState(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func (s *FileStateStore) Close() error { return nil }

func (s *FileStateStore) readLocked() models.RouterState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("router state unreadable, using empty state",
				applogger.String("path", s.path), applogger.Error(err))
		}
		return models.RouterState{}
	}
	st, ok := decodeState(data)
	if !ok {
		s.log.Warn("router state corrupt, using empty state", applogger.String("path", s.path))
	}
	return st
}

var _ repository.StateStore = (*FileStateStore)(nil)
