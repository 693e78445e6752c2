package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"EngineGate/internal/domain/models"
	"EngineGate/internal/domain/repository"
	"EngineGate/pkg/cache"
	applogger "EngineGate/pkg/logger"
)

// RedisStateStore keeps the router state under one Redis key so several
// processes can share the lock. Updates use WATCH/MULTI; fn may run more
// than once when another writer wins a race, always against the fresh value.
type RedisStateStore struct {
	cache    *cache.RedisCache
	key      string
	attempts int
	log      *applogger.Logger
}

func NewRedisStateStore(c *cache.RedisCache, key string, attempts int, l *applogger.Logger) *RedisStateStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &RedisStateStore{cache: c, key: key, attempts: attempts, log: l}
}

func (s *RedisStateStore) Load(ctx context.Context) (models.RouterState, error) {
	data, err := s.cache.Client().Get(ctx, s.cache.Key(s.key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RouterState{}, nil
	}
	if err != nil {
		return models.RouterState{}, fmt.Errorf("redis get state: %w", err)
	}
	return s.decode(data), nil
}

func (s *RedisStateStore) Update(ctx context.Context, fn repository.UpdateFunc) error {
	err := s.cache.Watch(ctx, s.key, s.attempts, func(tx *redis.Tx, key string) error {
		var st models.RouterState
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get state: %w", err)
		default:
			st = s.decode(data)
		}

		commit, err := fn(&st)
		if err != nil || !commit {
			return err
		}

		payload, err := encodeState(st)
		if err != nil {
			return fmt.Errorf("encode state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	})
	if errors.Is(err, cache.ErrTxContended) {
		return fmt.Errorf("update router state: %w", err)
	}
	return err
}

func (s *RedisStateStore) Close() error {
	return s.cache.Close()
}

func (s *RedisStateStore) decode(data []byte) models.RouterState {
	st, ok := decodeState(data)
	if !ok {
		s.log.Warn("router state corrupt, using empty state", applogger.String("key", s.key))
	}
	return st
}

var _ repository.StateStore = (*RedisStateStore)(nil)
