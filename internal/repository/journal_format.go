package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"EngineGate/internal/domain/models"
)

const journalHeader = "# Trading journal\n\n"

// redactedFields are masked wherever accepted events are recorded. The raw log keeps them.
var redactedFields = []string{"key"}

// RenderJournalEntry formats one accepted event as a Markdown block.
func RenderJournalEntry(entry models.JournalEntry, loc *time.Location) string {
	ev := entry.Event
	at := entry.At
	if loc != nil {
		at = at.In(loc)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s | TV Webhook | %s | %s %s | %s\n",
		at.Format("2006-01-02 15:04"), ev.Engine, ev.Symbol, ev.TF, ev.Signal)
	fmt.Fprintf(&b, "1. **Signal**: `%s`\n", ev.Signal)
	fmt.Fprintf(&b, "2. **Engine**: `%s`\n", ev.Engine)
	fmt.Fprintf(&b, "3. **Symbol/TF**: `%s` / `%s`\n", ev.Symbol, ev.TF)
	fmt.Fprintf(&b, "4. **Price**: `%s`\n", formatNumber(ev.Price))
	fmt.Fprintf(&b, "5. **TP**: `%s`\n", formatNumber(ev.TP))
	fmt.Fprintf(&b, "6. **SL**: `%s`\n", formatNumber(ev.SL))
	n := 7
	if ev.Reason != "" {
		fmt.Fprintf(&b, "%d. **Reason**: %s\n", n, ev.Reason)
		n++
	}
	fmt.Fprintf(&b, "%d. **Raw payload**:\n```json\n", n)
	b.WriteString(renderPayload(ev.Payload))
	b.WriteString("\n```\n")
	return b.String()
}

func formatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// redactPayload returns a copy of payload with credential fields masked.
func redactPayload(payload map[string]any) map[string]any {
	masked := make(map[string]any, len(payload))
	for k, v := range payload {
		masked[k] = v
	}
	for _, f := range redactedFields {
		if _, ok := masked[f]; ok {
			masked[f] = "***"
		}
	}
	return masked
}

func renderPayload(payload map[string]any) string {
	out, err := json.MarshalIndent(redactPayload(payload), "", "  ")
	if err != nil {
		return fmt.Sprintf("%q", err.Error())
	}
	return string(out)
}
