package rules

import (
	"fmt"
	"strings"

	"EngineGate/internal/domain/models"
)

// Key identifies one catalog rule.
type Key struct {
	Symbol string
	Engine models.Engine
}

func (k Key) String() string { return k.Symbol + ":" + string(k.Engine) }

// Entry is the flat form of a catalog rule, as it appears in config.
type Entry struct {
	Symbol            string
	Engine            string
	EntryLow          float64
	EntryHigh         float64
	InvalidationLevel float64
	InvalidationTF    string
	TakeProfits       []float64
}

// Catalog maps (symbol, engine) to plan levels. It is read-only once built.
type Catalog struct {
	plans map[Key]models.PlanLevels
}

// NewCatalog validates entries and builds a catalog.
func NewCatalog(entries []Entry) (*Catalog, error) {
	c := &Catalog{plans: make(map[Key]models.PlanLevels, len(entries))}
	for i, e := range entries {
		key := Key{Symbol: strings.TrimSpace(e.Symbol), Engine: models.Engine(strings.TrimSpace(e.Engine))}
		if key.Symbol == "" || key.Engine == "" {
			return nil, fmt.Errorf("catalog entry %d: symbol and engine are required", i)
		}
		if _, dup := c.plans[key]; dup {
			return nil, fmt.Errorf("catalog entry %s: duplicate key", key)
		}
		zone, err := models.NewZone(e.EntryLow, e.EntryHigh)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %s: %w", key, err)
		}
		tf := models.Timeframe(strings.ToUpper(strings.TrimSpace(e.InvalidationTF)))
		if !models.IsValidTimeframe(tf) {
			return nil, fmt.Errorf("catalog entry %s: unsupported invalidation timeframe %q", key, e.InvalidationTF)
		}
		if len(e.TakeProfits) == 0 {
			return nil, fmt.Errorf("catalog entry %s: at least one take profit is required", key)
		}
		c.plans[key] = models.PlanLevels{
			EntryZone:         zone,
			InvalidationLevel: e.InvalidationLevel,
			InvalidationTF:    tf,
			TakeProfits:       append([]float64(nil), e.TakeProfits...),
		}
	}
	return c, nil
}

// DefaultEntries are the built-in plan levels.
func DefaultEntries() []Entry {
	return []Entry{
		{Symbol: "BTCUSDT.P", Engine: "COINM_SHORT", EntryLow: 68600, EntryHigh: 68900, InvalidationLevel: 69200, InvalidationTF: "H1", TakeProfits: []float64{67200, 66200, 65000}},
		{Symbol: "ETHUSDT.P", Engine: "COINM_SHORT", EntryLow: 1955, EntryHigh: 1970, InvalidationLevel: 2020, InvalidationTF: "H1", TakeProfits: []float64{1920, 1900, 1850}},
		{Symbol: "BTCUSDT.P", Engine: "USDTM_LONG", EntryLow: 69200, EntryHigh: 69300, InvalidationLevel: 68700, InvalidationTF: "H1", TakeProfits: []float64{70500, 71200}},
		{Symbol: "XAUUSD", Engine: "GOLD_CFD_LONG", EntryLow: 5033, EntryHigh: 5035, InvalidationLevel: 5025, InvalidationTF: "M15", TakeProfits: []float64{5055, 5065, 5075}},
	}
}

// DefaultCatalog builds the catalog from DefaultEntries.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultEntries())
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns a copy of the plan for (symbol, engine).
func (c *Catalog) Lookup(symbol string, engine models.Engine) (models.PlanLevels, bool) {
	p, ok := c.plans[Key{Symbol: symbol, Engine: engine}]
	if !ok {
		return models.PlanLevels{}, false
	}
	return p.Clone(), true
}

func (c *Catalog) Len() int { return len(c.plans) }
