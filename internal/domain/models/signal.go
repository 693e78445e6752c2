package models

// Signal is the outcome of a rule firing. Build it with NewSignal; it is not mutated afterwards.
type Signal struct {
	Engine            Engine
	Symbol            string
	Side              Side
	Reason            string
	EntryZone         Zone
	InvalidationLevel float64
	InvalidationTF    Timeframe
	TakeProfits       []float64
}

func NewSignal(engine Engine, symbol string, side Side, reason string, plan PlanLevels) Signal {
	plan = plan.Clone()
	return Signal{
		Engine:            engine,
		Symbol:            symbol,
		Side:              side,
		Reason:            reason,
		EntryZone:         plan.EntryZone,
		InvalidationLevel: plan.InvalidationLevel,
		InvalidationTF:    plan.InvalidationTF,
		TakeProfits:       plan.TakeProfits,
	}
}
