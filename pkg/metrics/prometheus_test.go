package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordDecision("accepted", "COINM_SHORT")
	r.RecordDecision("accepted", "COINM_SHORT")
	r.RecordDecision("engine_conflict", "USDTM_LONG")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.decisions.WithLabelValues("accepted", "COINM_SHORT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisions.WithLabelValues("engine_conflict", "USDTM_LONG")))
}

func TestRecordActiveEngineKeepsSingleSeries(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordActiveEngine("COINM_SHORT")
	r.RecordActiveEngine("USDTM_LONG")

	assert.Equal(t, 1, testutil.CollectAndCount(r.activeEngine))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.activeEngine.WithLabelValues("USDTM_LONG")))
}
