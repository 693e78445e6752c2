package di

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/bytes"

	"EngineGate/internal/domain/models"
	domrepo "EngineGate/internal/domain/repository"
	domsvc "EngineGate/internal/domain/service"
	"EngineGate/internal/handler/api"
	internalrepo "EngineGate/internal/repository"
	"EngineGate/internal/service/bitget"
	"EngineGate/internal/service/telegram"
	"EngineGate/internal/service/webhook"
	"EngineGate/internal/services/rules"
	"EngineGate/internal/usecase"
	"EngineGate/pkg/cache"
	pkgch "EngineGate/pkg/clickhouse"
	"EngineGate/pkg/config"
	xhttp "EngineGate/pkg/http"
	pkgkafka "EngineGate/pkg/kafka"
	applogger "EngineGate/pkg/logger"
	"EngineGate/pkg/metrics"
	"EngineGate/pkg/server"
	"EngineGate/pkg/util"
)

const senderAttempts = 3

// ProvideLogger builds the process logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(nil)
}

func ProvideLocation(cfg *config.Config) (*time.Location, error) {
	return util.LoadLocation(cfg.Webhook.Timezone)
}

// ProvideStateStore picks the router state backend.
func ProvideStateStore(cfg *config.Config, l *applogger.Logger) (domrepo.StateStore, error) {
	switch cfg.State.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.State.Redis.Addr),
			cache.WithRedisPassword(cfg.State.Redis.Password),
			cache.WithRedisDB(cfg.State.Redis.DB),
			cache.WithRedisPool(cfg.State.Redis.PoolSize, 1, 30*time.Second),
			// the configured key is used as is
			cache.WithRedisPrefix(""),
		)
		if err != nil {
			return nil, fmt.Errorf("redis state store: %w", err)
		}
		return internalrepo.NewRedisStateStore(rc, cfg.State.Redis.Key, cfg.State.Redis.MaxAttempts, l), nil
	default:
		return internalrepo.NewFileStateStore(cfg.State.Path, l), nil
	}
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseAudit returns nil unless the ClickHouse mirror is enabled.
func ProvideClickHouseAudit(cfg *config.Config) (*internalrepo.ClickHouseAuditTrail, error) {
	if !cfg.Audit.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	ch := internalrepo.NewClickHouseAuditTrail(client, cfg.Audit.ClickHouse.Table)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ch.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return ch, nil
}

// ProvideAuditTrail builds the file trail plus the mirrors enabled in config.
func ProvideAuditTrail(
	cfg *config.Config,
	ch *internalrepo.ClickHouseAuditTrail,
	loc *time.Location,
	l *applogger.Logger,
	m domrepo.Metrics,
) (domrepo.AuditTrail, error) {
	var mirrors []domrepo.AuditTrail
	if ch != nil {
		mirrors = append(mirrors, ch)
	}
	closeMirrors := func() {
		for _, mirror := range mirrors {
			_ = mirror.Close()
		}
	}

	if cfg.Audit.Kafka.Enabled {
		producer, err := ProvideKafkaProducer(cfg)
		if err != nil {
			closeMirrors()
			return nil, err
		}
		mirrors = append(mirrors, internalrepo.NewKafkaAuditTrail(producer, cfg.Audit.Kafka.Topic))
	}

	primary, err := internalrepo.NewFileAuditTrail(cfg.Audit.RawLogPath, cfg.Audit.JournalPath, loc)
	if err != nil {
		closeMirrors()
		return nil, fmt.Errorf("audit trail: %w", err)
	}
	return internalrepo.NewAuditFanout(primary, mirrors, l, m), nil
}

// ProvideReadinessChecks lists the dependencies /readyz pings.
func ProvideReadinessChecks(ch *internalrepo.ClickHouseAuditTrail) []api.ReadinessCheck {
	if ch == nil {
		return nil
	}
	return []api.ReadinessCheck{{Name: "clickhouse", Check: ch.Health}}
}

// ProvideNotifier returns nil when Telegram is disabled.
func ProvideNotifier(cfg *config.Config) (domsvc.Notifier, error) {
	if !cfg.Telegram.Enabled {
		return nil, nil
	}
	n, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID, telegram.WithTimeout(cfg.Telegram.Timeout))
	if err != nil {
		return nil, err
	}
	return n, nil
}

func ProvideEngineRouter(
	cfg *config.Config,
	store domrepo.StateStore,
	audit domrepo.AuditTrail,
	m domrepo.Metrics,
	notifier domsvc.Notifier,
	l *applogger.Logger,
) *usecase.EngineRouter {
	opts := []usecase.RouterOption{
		usecase.WithRouterLogger(l),
		usecase.WithRouterMetrics(m),
	}
	if notifier != nil {
		opts = append(opts, usecase.WithNotifier(notifier))
	}
	return usecase.NewEngineRouter(usecase.RouterConfig{
		Secret:     cfg.Webhook.Secret,
		EngineLock: cfg.Webhook.EngineLock,
		Known:      models.NewEngineSet(cfg.Webhook.KnownEngines...),
		Aggressive: models.NewEngineSet(cfg.Webhook.AggressiveEngines...),
	}, store, audit, opts...)
}

// ProvideCatalog uses the configured rules, or the built-in ones when none are set.
func ProvideCatalog(cfg *config.Config) (*rules.Catalog, error) {
	if len(cfg.Rules.Catalog) == 0 {
		return rules.DefaultCatalog(), nil
	}
	entries := make([]rules.Entry, 0, len(cfg.Rules.Catalog))
	for _, r := range cfg.Rules.Catalog {
		entries = append(entries, rules.Entry{
			Symbol:            r.Symbol,
			Engine:            r.Engine,
			EntryLow:          r.EntryLow,
			EntryHigh:         r.EntryHigh,
			InvalidationLevel: r.InvalidationLevel,
			InvalidationTF:    r.InvalidationTF,
			TakeProfits:       r.TakeProfits,
		})
	}
	c, err := rules.NewCatalog(entries)
	if err != nil {
		return nil, fmt.Errorf("rules catalog: %w", err)
	}
	return c, nil
}

func ProvideSignalEvaluation(catalog *rules.Catalog, cfg *config.Config, m domrepo.Metrics) *usecase.SignalEvaluation {
	return usecase.NewSignalEvaluation(rules.NewEvaluator(catalog, cfg.Rules.LeaderSymbol), m)
}

// ProvideHandlers lists every HTTP handler the server mounts.
func ProvideHandlers(
	cfg *config.Config,
	router *usecase.EngineRouter,
	eval *usecase.SignalEvaluation,
	checks []api.ReadinessCheck,
	l *applogger.Logger,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewWebhookHandler(cfg.Webhook.Path, router, l, api.WithMaxBody(bodyLimit(cfg.Server.BodyLimit))),
		api.NewSignalsHandler(eval, router, api.LockSettings{
			Enabled:    cfg.Webhook.EngineLock,
			Aggressive: cfg.Webhook.AggressiveEngines,
		}, l),
		api.NewHealthHandler(router, checks...),
	}
}

func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithBodyLimitExempt(cfg.Webhook.Path),
		xhttp.WithLogger(l),
	)
}

// bodyLimit converts a size such as "1M" to bytes. Zero means unlimited.
func bodyLimit(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := bytes.Parse(s)
	if err != nil {
		return 0
	}
	return n
}

// ProvideKafkaConsumer returns nil unless Kafka inbound delivery is enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Inbound.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaWebhookHandler routes deliveries read from the inbound topic.
func ProvideKafkaWebhookHandler(cfg *config.Config, router *usecase.EngineRouter, l *applogger.Logger) pkgkafka.MessageHandler {
	return usecase.NewKafkaWebhookHandler(cfg.Kafka.Inbound.Topic, router, l)
}

func ProvideApp(
	l *applogger.Logger,
	httpServer *xhttp.Server,
	router *usecase.EngineRouter,
	store domrepo.StateStore,
	audit domrepo.AuditTrail,
	consumer *pkgkafka.Consumer,
	inbound pkgkafka.MessageHandler,
) *server.App {
	return server.New(l, httpServer, router, store, audit, consumer, inbound)
}

// Relay

func ProvideCandleSource(cfg *config.Config) domsvc.CandleSource {
	return bitget.NewClient(cfg.Relay.BaseURL, cfg.Relay.ProductType, cfg.Relay.Timeout)
}

func ProvideWebhookSender(cfg *config.Config) domsvc.WebhookSender {
	return webhook.NewSender(cfg.Relay.WebhookURL, cfg.Relay.Timeout, senderAttempts)
}

func ProvideRelayCursor(cfg *config.Config) domrepo.RelayCursor {
	return internalrepo.NewFileRelayCursor(cfg.Relay.StateFile)
}

func ProvideBarRelay(
	cfg *config.Config,
	candles domsvc.CandleSource,
	sender domsvc.WebhookSender,
	cursor domrepo.RelayCursor,
	l *applogger.Logger,
) *usecase.BarRelay {
	return usecase.NewBarRelay(usecase.RelayConfig{
		Key:         cfg.Relay.Key,
		Engine:      cfg.Relay.Engine,
		Symbol:      cfg.Relay.Symbol,
		TFSeconds:   cfg.Relay.TFSeconds,
		Poll:        cfg.Relay.PollInterval,
		SLPoints:    cfg.Relay.SLPoints,
		ForceSignal: cfg.Relay.ForceSignal,
		DryRun:      cfg.Relay.DryRun,
		OneShot:     cfg.Relay.OneShot,
	}, candles, sender, cursor, l)
}
