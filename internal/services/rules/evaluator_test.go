package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngineGate/internal/domain/models"
)

func btcShort(price float64) models.MarketState {
	return models.MarketState{Symbol: "BTCUSDT.P", Price: price, LowerHigh: true, BelowMA50: true}
}

func goldLong(price float64) models.MarketState {
	return models.MarketState{Symbol: "XAUUSD", Price: price, HigherLow: true, AboveMA50: true}
}

func btcLong(price float64) models.MarketState {
	return models.MarketState{
		Symbol: "BTCUSDT.P", Price: price,
		RSIAbove50Rising: true, BuyerVolumeDominant: true, AboveMA50: true, AboveMA100: true,
	}
}

func TestShortBiasFiresInsideZone(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")

	sig, ok := ev.Evaluate([]models.MarketState{btcShort(68750)})
	require.True(t, ok)
	assert.Equal(t, models.EngineCoinMShort, sig.Engine)
	assert.Equal(t, models.SideShort, sig.Side)
	assert.Equal(t, 69200.0, sig.InvalidationLevel)
	assert.Equal(t, models.TFH1, sig.InvalidationTF)
	assert.Equal(t, []float64{67200, 66200, 65000}, sig.TakeProfits)
	assert.NotEmpty(t, sig.Reason)
}

func TestShortBiasAcceptsEitherMovingAverage(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	ms := models.MarketState{Symbol: "ETHUSDT.P", Price: 1960, LowerHigh: true, BelowMA100: true}

	sig, ok := ev.Evaluate([]models.MarketState{ms})
	require.True(t, ok)
	assert.Equal(t, "ETHUSDT.P", sig.Symbol)

	ms.BelowMA100 = false
	_, ok = ev.Evaluate([]models.MarketState{ms})
	assert.False(t, ok)
}

func TestMacroEventSuppressesEveryRule(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	snaps := []models.MarketState{btcShort(68750), goldLong(5034), btcLong(69250)}
	for i := range snaps {
		snaps[i].MacroHighImpactSoon = true
	}
	_, ok := ev.Evaluate(snaps)
	assert.False(t, ok)
}

func TestPriceOutsideZoneNeverFires(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	_, ok := ev.Evaluate([]models.MarketState{btcShort(68500), goldLong(5040)})
	assert.False(t, ok)
}

func TestConflictingFlagsOnlyMatchingZoneFires(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	ms := btcShort(68750)
	ms.RSIAbove50Rising = true
	ms.BuyerVolumeDominant = true
	ms.AboveMA50 = true
	ms.AboveMA100 = true

	sig, ok := ev.Evaluate([]models.MarketState{ms})
	require.True(t, ok)
	assert.Equal(t, models.EngineCoinMShort, sig.Engine)
}

func TestLongReversal(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	sig, ok := ev.Evaluate([]models.MarketState{goldLong(5034)})
	require.True(t, ok)
	assert.Equal(t, models.EngineGoldCFDLong, sig.Engine)
	assert.Equal(t, models.SideLong, sig.Side)
	assert.Equal(t, models.TFM15, sig.InvalidationTF)
}

func TestLongContinuationLeaderNeedsNoConfirmation(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	sig, ok := ev.Evaluate([]models.MarketState{btcLong(69250)})
	require.True(t, ok)
	assert.Equal(t, models.EngineUSDTMLong, sig.Engine)
	assert.Equal(t, []float64{70500, 71200}, sig.TakeProfits)
}

func TestLongContinuationFollowerNeedsLeader(t *testing.T) {
	entries := append(DefaultEntries(), Entry{
		Symbol: "ETHUSDT.P", Engine: "USDTM_LONG", EntryLow: 2000, EntryHigh: 2010,
		InvalidationLevel: 1980, InvalidationTF: "H1", TakeProfits: []float64{2050},
	})
	c, err := NewCatalog(entries)
	require.NoError(t, err)
	ev := NewEvaluator(c, "BTCUSDT.P")

	ms := btcLong(2005)
	ms.Symbol = "ETHUSDT.P"
	_, ok := ev.Evaluate([]models.MarketState{ms})
	assert.False(t, ok)

	ms.LeaderIsLeading = true
	sig, ok := ev.Evaluate([]models.MarketState{ms})
	require.True(t, ok)
	assert.Equal(t, "ETHUSDT.P", sig.Symbol)
}

func TestLongContinuationNeedsBothAverages(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	ms := btcLong(69250)
	ms.AboveMA100 = false
	_, ok := ev.Evaluate([]models.MarketState{ms})
	assert.False(t, ok)
}

func TestEachRequiredFlagSuppressesItsRule(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")

	tests := []struct {
		name  string
		base  models.MarketState
		clear func(*models.MarketState)
	}{
		{"short bias lower high", btcShort(68750), func(ms *models.MarketState) { ms.LowerHigh = false }},
		{"short bias below ma50", btcShort(68750), func(ms *models.MarketState) { ms.BelowMA50 = false }},
		{"long reversal higher low", goldLong(5034), func(ms *models.MarketState) { ms.HigherLow = false }},
		{"long reversal above ma50", goldLong(5034), func(ms *models.MarketState) { ms.AboveMA50 = false }},
		{"long continuation rsi", btcLong(69250), func(ms *models.MarketState) { ms.RSIAbove50Rising = false }},
		{"long continuation buyer volume", btcLong(69250), func(ms *models.MarketState) { ms.BuyerVolumeDominant = false }},
		{"long continuation above ma50", btcLong(69250), func(ms *models.MarketState) { ms.AboveMA50 = false }},
		{"long continuation above ma100", btcLong(69250), func(ms *models.MarketState) { ms.AboveMA100 = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ev.Evaluate([]models.MarketState{tt.base})
			require.True(t, ok)

			ms := tt.base
			tt.clear(&ms)
			_, ok = ev.Evaluate([]models.MarketState{ms})
			assert.False(t, ok)
		})
	}
}

func TestSelectionPrefersPriorityRegardlessOfOrder(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	short, gold, long := btcShort(68750), goldLong(5034), btcLong(69250)

	orders := [][]models.MarketState{
		{short, gold, long},
		{gold, long, short},
		{long, short, gold},
		{long, gold, short},
	}
	for _, snaps := range orders {
		sig, ok := ev.Evaluate(snaps)
		require.True(t, ok)
		assert.Equal(t, models.EngineCoinMShort, sig.Engine)
	}

	sig, ok := ev.Evaluate([]models.MarketState{long, gold})
	require.True(t, ok)
	assert.Equal(t, models.EngineGoldCFDLong, sig.Engine)
}

func TestSelectionKeepsEncounterOrderOnTies(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	eth := models.MarketState{Symbol: "ETHUSDT.P", Price: 1960, LowerHigh: true, BelowMA50: true}

	sig, ok := ev.Evaluate([]models.MarketState{eth, btcShort(68750)})
	require.True(t, ok)
	assert.Equal(t, "ETHUSDT.P", sig.Symbol)

	sig, ok = ev.Evaluate([]models.MarketState{btcShort(68750), eth})
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT.P", sig.Symbol)
}

func TestSelectRanksUnknownEnginesLast(t *testing.T) {
	other := models.Signal{Engine: "SCALPER", Symbol: "A"}
	long := models.Signal{Engine: models.EngineUSDTMLong, Symbol: "B"}

	sig, ok := Select([]models.Signal{other, long})
	require.True(t, ok)
	assert.Equal(t, "B", sig.Symbol)
	assert.Equal(t, 99, Priority("SCALPER"))

	_, ok = Select(nil)
	assert.False(t, ok)
}

func TestEmptyInputYieldsNoSignal(t *testing.T) {
	ev := NewEvaluator(DefaultCatalog(), "")
	_, ok := ev.Evaluate(nil)
	assert.False(t, ok)
	_, ok = ev.Evaluate([]models.MarketState{{Symbol: "DOGE", Price: 1, LowerHigh: true, BelowMA50: true}})
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	assert.Equal(t, "No signal.", Render(models.Signal{}, false))

	ev := NewEvaluator(DefaultCatalog(), "")
	sig, ok := ev.Evaluate([]models.MarketState{btcShort(68750)})
	require.True(t, ok)
	out := Render(sig, ok)
	assert.Contains(t, out, "Signal: COINM_SHORT | BTCUSDT.P | SHORT")
	assert.Contains(t, out, "Entry zone: 68600-68900")
	assert.Contains(t, out, "Invalidation: H1 > 69200")
	assert.Contains(t, out, "TPs: 67200, 66200, 65000")

	sig, ok = ev.Evaluate([]models.MarketState{goldLong(5034)})
	require.True(t, ok)
	assert.Contains(t, Render(sig, ok), "Invalidation: M15 < 5025")
}
