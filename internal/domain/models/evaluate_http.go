package models

// Requests for the evaluation HTTP endpoint.

type MarketSnapshotRequest struct {
	Symbol   string   `json:"symbol" validate:"required"`
	Price    float64  `json:"price" validate:"gt=0"`
	CloseM15 *float64 `json:"close_m15,omitempty"`
	CloseH1  *float64 `json:"close_h1,omitempty"`
	CloseH4  *float64 `json:"close_h4,omitempty"`

	LowerHigh bool `json:"lower_high"`
	LowerLow  bool `json:"lower_low"`
	HigherLow bool `json:"higher_low"`

	BelowMA50  bool `json:"below_ma_50"`
	BelowMA100 bool `json:"below_ma_100"`
	AboveMA50  bool `json:"above_ma_50"`
	AboveMA100 bool `json:"above_ma_100"`

	RSIAbove50Rising    bool `json:"rsi_above_50_rising"`
	BuyerVolumeDominant bool `json:"buyer_volume_dominant"`

	MacroHighImpactSoon bool `json:"macro_high_impact_soon"`
	LeaderIsLeading     bool `json:"leader_is_leading"`
}

func (r MarketSnapshotRequest) ToMarketState() MarketState {
	return MarketState{
		Symbol:              r.Symbol,
		Price:               r.Price,
		CloseM15:            r.CloseM15,
		CloseH1:             r.CloseH1,
		CloseH4:             r.CloseH4,
		LowerHigh:           r.LowerHigh,
		LowerLow:            r.LowerLow,
		HigherLow:           r.HigherLow,
		BelowMA50:           r.BelowMA50,
		BelowMA100:          r.BelowMA100,
		AboveMA50:           r.AboveMA50,
		AboveMA100:          r.AboveMA100,
		RSIAbove50Rising:    r.RSIAbove50Rising,
		BuyerVolumeDominant: r.BuyerVolumeDominant,
		MacroHighImpactSoon: r.MacroHighImpactSoon,
		LeaderIsLeading:     r.LeaderIsLeading,
	}
}

type EvaluateRequest struct {
	Snapshots []MarketSnapshotRequest `json:"snapshots" validate:"required,min=1,max=100,dive"`
}

type SignalResponse struct {
	Engine            string    `json:"engine"`
	Symbol            string    `json:"symbol"`
	Side              string    `json:"side"`
	Reason            string    `json:"reason"`
	EntryLow          float64   `json:"entry_low"`
	EntryHigh         float64   `json:"entry_high"`
	InvalidationLevel float64   `json:"invalidation_level"`
	InvalidationTF    string    `json:"invalidation_tf"`
	TakeProfits       []float64 `json:"take_profits"`
}

type EvaluateResponse struct {
	Signal  *SignalResponse `json:"signal"`
	Summary string          `json:"summary"`
}

type RouterStateResponse struct {
	ActiveEngine      *string  `json:"active_engine"`
	UpdatedAt         *string  `json:"updated_at"`
	EngineLock        bool     `json:"engine_lock"`
	AggressiveEngines []string `json:"aggressive_engines"`
}
