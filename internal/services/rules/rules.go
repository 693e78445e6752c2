package rules

import "EngineGate/internal/domain/models"

// DefaultLeaderSymbol is the market whose own continuation needs no outside confirmation.
const DefaultLeaderSymbol = "BTCUSDT.P"

// Rule decides whether a snapshot produces a signal for its engine.
type Rule interface {
	Engine() models.Engine
	Evaluate(ms models.MarketState, catalog *Catalog) (models.Signal, bool)
}

// planInZone returns the plan when the catalog has one for the snapshot and price is inside its entry zone.
func planInZone(ms models.MarketState, engine models.Engine, catalog *Catalog) (models.PlanLevels, bool) {
	plan, ok := catalog.Lookup(ms.Symbol, engine)
	if !ok || !plan.EntryZone.Contains(ms.Price) {
		return models.PlanLevels{}, false
	}
	return plan, true
}

// ShortBias fires on a lower high below at least one moving average.
type ShortBias struct{}

func (ShortBias) Engine() models.Engine { return models.EngineCoinMShort }

func (r ShortBias) Evaluate(ms models.MarketState, catalog *Catalog) (models.Signal, bool) {
	if !ms.LowerHigh || !(ms.BelowMA50 || ms.BelowMA100) || ms.MacroHighImpactSoon {
		return models.Signal{}, false
	}
	plan, ok := planInZone(ms, r.Engine(), catalog)
	if !ok {
		return models.Signal{}, false
	}
	return models.NewSignal(r.Engine(), ms.Symbol, models.SideShort,
		"COIN-M short: lower high under the moving averages, price inside entry zone", plan), true
}

// LongContinuation fires on momentum above both moving averages, confirmed by the leader.
type LongContinuation struct {
	LeaderSymbol string
}

func (LongContinuation) Engine() models.Engine { return models.EngineUSDTMLong }

func (r LongContinuation) Evaluate(ms models.MarketState, catalog *Catalog) (models.Signal, bool) {
	if ms.MacroHighImpactSoon || !ms.RSIAbove50Rising || !ms.BuyerVolumeDominant {
		return models.Signal{}, false
	}
	if !ms.AboveMA50 || !ms.AboveMA100 {
		return models.Signal{}, false
	}
	if ms.Symbol != r.leader() && !ms.LeaderIsLeading {
		return models.Signal{}, false
	}
	plan, ok := planInZone(ms, r.Engine(), catalog)
	if !ok {
		return models.Signal{}, false
	}
	return models.NewSignal(r.Engine(), ms.Symbol, models.SideLong,
		"USDT-M long: rising RSI over 50, buyers in control above MA50 and MA100, price inside entry zone", plan), true
}

func (r LongContinuation) leader() string {
	if r.LeaderSymbol == "" {
		return DefaultLeaderSymbol
	}
	return r.LeaderSymbol
}

// LongReversal fires on a higher low reclaimed above the 50 period average.
type LongReversal struct{}

func (LongReversal) Engine() models.Engine { return models.EngineGoldCFDLong }

func (r LongReversal) Evaluate(ms models.MarketState, catalog *Catalog) (models.Signal, bool) {
	if !ms.HigherLow || !ms.AboveMA50 || ms.MacroHighImpactSoon {
		return models.Signal{}, false
	}
	plan, ok := planInZone(ms, r.Engine(), catalog)
	if !ok {
		return models.Signal{}, false
	}
	return models.NewSignal(r.Engine(), ms.Symbol, models.SideLong,
		"Gold long: higher low held above MA50, price inside entry zone", plan), true
}
