//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"EngineGate/internal/usecase"
	"EngineGate/pkg/config"
	"EngineGate/pkg/server"
)

// InitializeApp wires up the webhook service.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideLocation,

		// Storage
		ProvideStateStore,
		ProvideClickHouseAudit,
		ProvideAuditTrail,
		ProvideNotifier,

		// Use cases
		ProvideEngineRouter,
		ProvideCatalog,
		ProvideSignalEvaluation,

		// Transports
		ProvideReadinessChecks,
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideKafkaConsumer,
		ProvideKafkaWebhookHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeRelay wires up the bar-close relay.
func InitializeRelay(cfg *config.Config) (*usecase.BarRelay, error) {
	wire.Build(
		ProvideLogger,
		ProvideCandleSource,
		ProvideWebhookSender,
		ProvideRelayCursor,
		ProvideBarRelay,
	)
	return &usecase.BarRelay{}, nil
}
