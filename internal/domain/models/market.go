package models

// MarketState is a point-in-time snapshot for one symbol.
// Flags are supplied by the caller; nothing is derived from price.
type MarketState struct {
	Symbol string
	Price  float64

	CloseM15 *float64
	CloseH1  *float64
	CloseH4  *float64

	LowerHigh bool
	LowerLow  bool
	HigherLow bool

	BelowMA50  bool
	BelowMA100 bool
	AboveMA50  bool
	AboveMA100 bool

	RSIAbove50Rising    bool
	BuyerVolumeDominant bool

	MacroHighImpactSoon bool
	// LeaderIsLeading says the market leader confirms the move.
	LeaderIsLeading bool
}
