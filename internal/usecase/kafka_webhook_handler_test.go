package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngineGate/pkg/kafka"
)

func TestKafkaWebhookHandler(t *testing.T) {
	f := newRouterFixture(t, defaultRouterConfig())
	h := NewKafkaWebhookHandler("enginegate.webhooks", f.router, nil)
	assert.Equal(t, "enginegate.webhooks", h.Topic())
	ctx := context.Background()

	require.NoError(t, h.Handle(ctx, kafka.Message{Topic: "enginegate.webhooks", Partition: 2, Offset: 7, Value: []byte(signalBody("COINM_SHORT"))}))
	require.Len(t, f.audit.raw, 1)
	assert.Equal(t, "kafka", f.audit.raw[0].Source)
	assert.Equal(t, "enginegate.webhooks/2@7", f.audit.raw[0].Remote)

	// refusals are not retried
	assert.NoError(t, h.Handle(ctx, kafka.Message{Value: []byte(`{"key":"bad"}`)}))
	assert.NoError(t, h.Handle(ctx, kafka.Message{Value: []byte(signalBody("USDTM_LONG"))}))

	f.store.updErr = errors.New("store down")
	assert.Error(t, h.Handle(ctx, kafka.Message{Value: []byte(signalBody("COINM_SHORT"))}))
}
