package models

import "fmt"

// Zone is a closed price interval.
type Zone struct {
	Low  float64
	High float64
}

// NewZone builds a zone, rejecting an inverted interval.
func NewZone(low, high float64) (Zone, error) {
	if low > high {
		return Zone{}, fmt.Errorf("zone low %v above high %v", low, high)
	}
	return Zone{Low: low, High: high}, nil
}

// Contains reports whether p lies in the zone, bounds included.
func (z Zone) Contains(p float64) bool {
	return z.Low <= p && p <= z.High
}

// PlanLevels is the trade plan attached to a (symbol, engine) rule.
type PlanLevels struct {
	EntryZone         Zone
	InvalidationLevel float64
	InvalidationTF    Timeframe
	// TakeProfits keeps execution order.
	TakeProfits []float64
}

// Clone returns a copy that shares no slices with p.
func (p PlanLevels) Clone() PlanLevels {
	c := p
	c.TakeProfits = append([]float64(nil), p.TakeProfits...)
	return c
}
