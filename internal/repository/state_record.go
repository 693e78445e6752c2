package repository

import (
	"encoding/json"
	"time"

	"EngineGate/internal/domain/models"
)

// stateRecord is the stored form of the router state. Empty values are written as null.
type stateRecord struct {
	ActiveEngine *string `json:"active_engine"`
	UpdatedAt    *string `json:"updated_at"`
}

func encodeState(st models.RouterState) ([]byte, error) {
	var rec stateRecord
	if st.ActiveEngine != "" {
		e := string(st.ActiveEngine)
		rec.ActiveEngine = &e
	}
	if st.UpdatedAt != nil {
		ts := st.UpdatedAt.Format(time.RFC3339Nano)
		rec.UpdatedAt = &ts
	}
	return json.MarshalIndent(rec, "", "  ")
}

// decodeState never fails: anything unreadable is the empty state.
func decodeState(data []byte) (models.RouterState, bool) {
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.RouterState{}, false
	}
	var st models.RouterState
	if rec.ActiveEngine != nil {
		st.ActiveEngine = models.Engine(*rec.ActiveEngine)
	}
	if rec.UpdatedAt != nil {
		if ts, err := time.Parse(time.RFC3339Nano, *rec.UpdatedAt); err == nil {
			st.UpdatedAt = &ts
		}
	}
	return st, true
}
