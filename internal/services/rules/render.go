package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"EngineGate/internal/domain/models"
)

// Render formats an evaluation result for people.
func Render(sig models.Signal, ok bool) string {
	if !ok {
		return "No signal."
	}
	cmp := "<"
	if sig.Side == models.SideShort {
		cmp = ">"
	}
	tps := make([]string, 0, len(sig.TakeProfits))
	for _, tp := range sig.TakeProfits {
		tps = append(tps, FormatPrice(tp))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Signal: %s | %s | %s\n", sig.Engine, sig.Symbol, sig.Side)
	fmt.Fprintf(&b, "Reason: %s\n", sig.Reason)
	fmt.Fprintf(&b, "Entry zone: %s-%s\n", FormatPrice(sig.EntryZone.Low), FormatPrice(sig.EntryZone.High))
	fmt.Fprintf(&b, "Invalidation: %s %s %s\n", sig.InvalidationTF, cmp, FormatPrice(sig.InvalidationLevel))
	fmt.Fprintf(&b, "TPs: %s", strings.Join(tps, ", "))
	return b.String()
}

// FormatPrice prints a price without float noise.
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).String()
}
