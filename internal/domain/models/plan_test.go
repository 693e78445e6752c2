package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneContainsIsInclusive(t *testing.T) {
	z, err := NewZone(68600, 68900)
	require.NoError(t, err)

	assert.True(t, z.Contains(68600))
	assert.True(t, z.Contains(68900))
	assert.True(t, z.Contains(68750))
	assert.False(t, z.Contains(68599.99))
	assert.False(t, z.Contains(68900.01))
}

func TestNewZoneRejectsInverted(t *testing.T) {
	_, err := NewZone(10, 9)
	assert.Error(t, err)

	z, err := NewZone(5, 5)
	require.NoError(t, err)
	assert.True(t, z.Contains(5))
}

func TestNewSignalCopiesTakeProfits(t *testing.T) {
	plan := PlanLevels{EntryZone: Zone{Low: 1, High: 2}, InvalidationLevel: 3, InvalidationTF: TFH1, TakeProfits: []float64{4, 5}}
	sig := NewSignal(EngineCoinMShort, "X", SideShort, "r", plan)

	plan.TakeProfits[0] = 99
	assert.Equal(t, []float64{4, 5}, sig.TakeProfits)
}

func TestEngineConflictMessageNamesHolder(t *testing.T) {
	err := NewEngineConflict(EngineCoinMShort, EngineUSDTMLong)
	assert.Equal(t, RejectEngineConflict, err.Kind)
	assert.Contains(t, err.Message, "active_engine=COINM_SHORT")
	assert.Contains(t, err.Message, "refusing engine=USDTM_LONG")
	assert.Equal(t, EngineCoinMShort, err.ActiveEngine)
}
