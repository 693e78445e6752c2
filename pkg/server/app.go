package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "EngineGate/internal/domain/repository"
	"EngineGate/internal/usecase"
	xhttp "EngineGate/pkg/http"
	pkgkafka "EngineGate/pkg/kafka"
	applogger "EngineGate/pkg/logger"
)

// App encapsulates the webhook service lifecycle.
type App struct {
	log        *applogger.Logger
	httpServer *xhttp.Server
	router     *usecase.EngineRouter
	store      drepo.StateStore
	audit      drepo.AuditTrail

	// consumer is nil unless deliveries are also read from Kafka.
	consumer *pkgkafka.Consumer
	inbound  pkgkafka.MessageHandler
}

// New creates a new App instance with all dependencies.
func New(
	l *applogger.Logger,
	httpServer *xhttp.Server,
	router *usecase.EngineRouter,
	store drepo.StateStore,
	audit drepo.AuditTrail,
	consumer *pkgkafka.Consumer,
	inbound pkgkafka.MessageHandler,
) *App {
	return &App{
		log:        l,
		httpServer: httpServer,
		router:     router,
		store:      store,
		audit:      audit,
		consumer:   consumer,
		inbound:    inbound,
	}
}

// Run starts the application and blocks until ctx is done or an interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !a.router.Ready() {
		a.log.Warn("webhook secret missing, every delivery will be refused")
	}

	if a.consumer != nil && a.inbound != nil {
		a.consumer.RegisterHandler(a.inbound)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka inbound started", applogger.String("topic", a.inbound.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then flushes and closes storage.
func (a *App) shutdown() error {
	timeout := a.httpServer.ShutdownTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.router.Wait()

	if err := a.audit.Close(); err != nil {
		a.log.Warn("audit trail close error", applogger.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("state store close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
