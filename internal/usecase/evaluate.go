package usecase

import (
	"time"

	"EngineGate/internal/domain/models"
	drepo "EngineGate/internal/domain/repository"
	domsvc "EngineGate/internal/domain/service"
)

// SignalEvaluation runs the rule engine over a batch of snapshots and counts the outcome.
type SignalEvaluation struct {
	evaluator domsvc.SignalEvaluator
	metrics   drepo.Metrics
}

func NewSignalEvaluation(evaluator domsvc.SignalEvaluator, metrics drepo.Metrics) *SignalEvaluation {
	return &SignalEvaluation{evaluator: evaluator, metrics: metrics}
}

func (s *SignalEvaluation) Evaluate(snapshots []models.MarketState) (models.Signal, bool) {
	start := time.Now()
	sig, ok := s.evaluator.Evaluate(snapshots)
	if s.metrics != nil {
		engine := "none"
		if ok {
			engine = string(sig.Engine)
		}
		s.metrics.RecordEvaluation(engine)
		s.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	}
	return sig, ok
}
