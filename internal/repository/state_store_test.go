package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngineGate/internal/domain/models"
	"EngineGate/internal/domain/repository"
	"EngineGate/pkg/cache"
)

func newRedisStore(t *testing.T) (*RedisStateStore, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	c, err := cache.NewRedisCache(cache.WithRedisAddr(m.Addr()))
	require.NoError(t, err)
	s := NewRedisStateStore(c, "router_state", 16, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s, m
}

// stateStoreContract runs the behaviour every StateStore must share.
func stateStoreContract(t *testing.T, newStore func(t *testing.T) repository.StateStore) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		s := newStore(t)
		st, err := s.Load(ctx)
		require.NoError(t, err)
		assert.False(t, st.HasActive())
		assert.Nil(t, st.UpdatedAt)
	})

	t.Run("commit persists", func(t *testing.T) {
		s := newStore(t)
		ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
		err := s.Update(ctx, func(st *models.RouterState) (bool, error) {
			st.ActiveEngine = models.EngineCoinMShort
			st.UpdatedAt = &ts
			return true, nil
		})
		require.NoError(t, err)

		st, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.EngineCoinMShort, st.ActiveEngine)
		require.NotNil(t, st.UpdatedAt)
		assert.True(t, ts.Equal(*st.UpdatedAt))
	})

	t.Run("no commit leaves state", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Update(ctx, func(st *models.RouterState) (bool, error) {
			st.ActiveEngine = models.EngineUSDTMLong
			return true, nil
		}))
		require.NoError(t, s.Update(ctx, func(st *models.RouterState) (bool, error) {
			st.ActiveEngine = models.EngineGoldCFDLong
			return false, nil
		}))
		st, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.EngineUSDTMLong, st.ActiveEngine)
	})

	t.Run("fn error propagates", func(t *testing.T) {
		s := newStore(t)
		boom := errors.New("boom")
		err := s.Update(ctx, func(st *models.RouterState) (bool, error) {
			st.ActiveEngine = models.EngineUSDTMLong
			return true, boom
		})
		assert.ErrorIs(t, err, boom)
		st, err := s.Load(ctx)
		require.NoError(t, err)
		assert.False(t, st.HasActive())
	})

	t.Run("concurrent claim has one winner", func(t *testing.T) {
		s := newStore(t)
		engines := []models.Engine{models.EngineCoinMShort, models.EngineUSDTMLong, models.EngineGoldCFDLong}
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []models.Engine
		)
		for _, e := range engines {
			wg.Add(1)
			go func(e models.Engine) {
				defer wg.Done()
				won := false
				err := s.Update(ctx, func(st *models.RouterState) (bool, error) {
					won = false
					if st.HasActive() {
						return false, nil
					}
					st.ActiveEngine = e
					won = true
					return true, nil
				})
				assert.NoError(t, err)
				if won {
					mu.Lock()
					winners = append(winners, e)
					mu.Unlock()
				}
			}(e)
		}
		wg.Wait()
		require.Len(t, winners, 1)

		st, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, winners[0], st.ActiveEngine)
	})
}

func TestFileStateStore(t *testing.T) {
	stateStoreContract(t, func(t *testing.T) repository.StateStore {
		return NewFileStateStore(filepath.Join(t.TempDir(), "state", "router_state.json"), nil)
	})
}

func TestRedisStateStore(t *testing.T) {
	stateStoreContract(t, func(t *testing.T) repository.StateStore {
		s, _ := newRedisStore(t)
		return s
	})
}

func TestFileStateStore_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewFileStateStore(path, nil)
	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, st.HasActive())

	require.NoError(t, s.Update(context.Background(), func(st *models.RouterState) (bool, error) {
		st.ActiveEngine = models.EngineGoldCFDLong
		return true, nil
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"active_engine": "GOLD_CFD_LONG"`)
}

func TestFileStateStore_NullFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router_state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"active_engine": null, "updated_at": null}`), 0o644))

	st, err := NewFileStateStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, st.HasActive())
	assert.Nil(t, st.UpdatedAt)
}

func TestFileStateStore_NoCommitDoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router_state.json")
	s := NewFileStateStore(path, nil)
	require.NoError(t, s.Update(context.Background(), func(st *models.RouterState) (bool, error) {
		return false, nil
	}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRedisStateStore_CorruptValueIsEmpty(t *testing.T) {
	s, m := newRedisStore(t)
	require.NoError(t, m.Set("enginegate:router_state", "garbage"))

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, st.HasActive())
}

func TestRedisStateStore_UnavailableIsError(t *testing.T) {
	s, m := newRedisStore(t)
	m.Close()

	_, err := s.Load(context.Background())
	assert.Error(t, err)
	err = s.Update(context.Background(), func(st *models.RouterState) (bool, error) { return true, nil })
	assert.Error(t, err)
}

func TestEncodeState_WritesNulls(t *testing.T) {
	data, err := encodeState(models.RouterState{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"active_engine": null, "updated_at": null}`, string(data))
}
