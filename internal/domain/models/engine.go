package models

import "strings"

// Engine names a strategy that emits signals.
type Engine string

const (
	EngineCoinMShort  Engine = "COINM_SHORT"
	EngineUSDTMLong   Engine = "USDTM_LONG"
	EngineGoldCFDLong Engine = "GOLD_CFD_LONG"
	EngineTVTest      Engine = "TV_TEST"
	EngineNgrokTest   Engine = "NGROK_TEST"

	// EngineUnknown is assigned to anything outside the known set.
	EngineUnknown Engine = "UNKNOWN"
)

func (e Engine) String() string { return string(e) }

// Side is the trade direction of a signal.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
	SideFlat  Side = "FLAT"
)

// Timeframe labels the candle a plan is invalidated on.
type Timeframe string

const (
	TFM15 Timeframe = "M15"
	TFH1  Timeframe = "H1"
	TFH4  Timeframe = "H4"
)

// IsValidTimeframe returns true if tf is a supported invalidation timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TFM15, TFH1, TFH4:
		return true
	default:
		return false
	}
}

// EngineSet is a closed set of engine names.
type EngineSet map[Engine]struct{}

func NewEngineSet(names ...string) EngineSet {
	s := make(EngineSet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[Engine(n)] = struct{}{}
		}
	}
	return s
}

func (s EngineSet) Contains(e Engine) bool {
	_, ok := s[e]
	return ok
}

