package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"EngineGate/internal/domain/models"
)

const unknownField = "UNKNOWN"

// checkObject accepts only a JSON object body.
func checkObject(body []byte) error {
	if !gjson.ValidBytes(body) {
		return models.NewMalformedBody("invalid JSON")
	}
	if !gjson.ParseBytes(body).IsObject() {
		return models.NewMalformedBody("payload must be a JSON object")
	}
	return nil
}

// topLevel indexes the members of a JSON object. A repeated key keeps its last
// value, the same rule encoding/json applies when decoding into a map.
func topLevel(body []byte) map[string]gjson.Result {
	fields := map[string]gjson.Result{}
	gjson.ParseBytes(body).ForEach(func(k, v gjson.Result) bool {
		fields[k.String()] = v
		return true
	})
	return fields
}

// Normalize coerces the routing fields of a JSON object body. Text fields are
// trimmed and default to UNKNOWN, numeric fields fall back to 0. The returned
// payload keeps every original field with the normalized values written over it.
func Normalize(deliveryID string, body []byte) (models.NormalizedEvent, error) {
	if err := checkObject(body); err != nil {
		return models.NormalizedEvent{}, err
	}
	payload := map[string]any{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.NormalizedEvent{}, models.NewMalformedBody(fmt.Sprintf("decode payload: %v", err))
	}

	doc := topLevel(body)
	ev := models.NormalizedEvent{
		DeliveryID: deliveryID,
		Engine:     models.Engine(textField(doc, "engine", unknownField)),
		Signal:     textField(doc, "signal", unknownField),
		Symbol:     textField(doc, "symbol", unknownField),
		TF:         textField(doc, "tf", unknownField),
		Price:      numberField(doc, "price"),
		TP:         numberField(doc, "tp"),
		SL:         numberField(doc, "sl"),
		Reason:     textField(doc, "reason", ""),
		Payload:    payload,
	}
	ev.Payload["engine"] = string(ev.Engine)
	ev.Payload["signal"] = ev.Signal
	ev.Payload["symbol"] = ev.Symbol
	ev.Payload["tf"] = ev.TF
	ev.Payload["price"] = ev.Price
	ev.Payload["tp"] = ev.TP
	ev.Payload["sl"] = ev.SL
	return ev, nil
}

// textField stringifies any non-null value; missing or null yields def.
func textField(doc map[string]gjson.Result, key, def string) string {
	r, ok := doc[key]
	if !ok || r.Type == gjson.Null {
		return def
	}
	return strings.TrimSpace(r.String())
}

// numberField accepts JSON numbers and numeric strings. Anything else is 0.
func numberField(doc map[string]gjson.Result, key string) float64 {
	r := doc[key]
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0
		}
		v = f
	default:
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
