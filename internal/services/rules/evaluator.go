package rules

import (
	"EngineGate/internal/domain/models"
	domsvc "EngineGate/internal/domain/service"
)

// unrankedPriority is used for engines missing from the priority table.
const unrankedPriority = 99

// Priority ranks engines when several signals fire at once; lower wins.
func Priority(e models.Engine) int {
	switch e {
	case models.EngineCoinMShort:
		return 1
	case models.EngineGoldCFDLong:
		return 2
	case models.EngineUSDTMLong:
		return 3
	default:
		return unrankedPriority
	}
}

// Evaluator runs every rule over every snapshot and keeps the best ranked signal.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	catalog *Catalog
	rules   []Rule
}

// NewEvaluator wires the three built-in rules. Rule order is the tie-break order within a snapshot.
func NewEvaluator(catalog *Catalog, leaderSymbol string) *Evaluator {
	return NewEvaluatorWithRules(catalog,
		ShortBias{},
		LongReversal{},
		LongContinuation{LeaderSymbol: leaderSymbol},
	)
}

func NewEvaluatorWithRules(catalog *Catalog, rules ...Rule) *Evaluator {
	return &Evaluator{catalog: catalog, rules: rules}
}

// Candidates returns every signal that fires, in encounter order.
func (e *Evaluator) Candidates(snapshots []models.MarketState) []models.Signal {
	var out []models.Signal
	for _, ms := range snapshots {
		for _, r := range e.rules {
			if sig, ok := r.Evaluate(ms, e.catalog); ok {
				out = append(out, sig)
			}
		}
	}
	return out
}

// Evaluate returns the highest priority signal. Equal ranks keep encounter order.
func (e *Evaluator) Evaluate(snapshots []models.MarketState) (models.Signal, bool) {
	return Select(e.Candidates(snapshots))
}

// Select picks the first signal with the lowest priority rank.
func Select(candidates []models.Signal) (models.Signal, bool) {
	if len(candidates) == 0 {
		return models.Signal{}, false
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		if Priority(candidates[i].Engine) < Priority(candidates[best].Engine) {
			best = i
		}
	}
	return candidates[best], true
}

var _ domsvc.SignalEvaluator = (*Evaluator)(nil)
