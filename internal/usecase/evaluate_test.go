package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"EngineGate/internal/domain/models"
)

type stubEvaluator struct {
	sig models.Signal
	ok  bool
}

func (s stubEvaluator) Evaluate([]models.MarketState) (models.Signal, bool) { return s.sig, s.ok }

type evalMetrics struct {
	fakeMetrics
	evaluations []string
}

func (m *evalMetrics) RecordEvaluation(engine string) {
	m.evaluations = append(m.evaluations, engine)
}

func TestSignalEvaluation_CountsOutcome(t *testing.T) {
	m := &evalMetrics{}

	_, ok := NewSignalEvaluation(stubEvaluator{}, m).Evaluate(nil)
	assert.False(t, ok)

	sig, ok := NewSignalEvaluation(stubEvaluator{sig: models.Signal{Engine: models.EngineGoldCFDLong}, ok: true}, m).Evaluate(nil)
	assert.True(t, ok)
	assert.Equal(t, models.EngineGoldCFDLong, sig.Engine)

	assert.Equal(t, []string{"none", "GOLD_CFD_LONG"}, m.evaluations)
}
