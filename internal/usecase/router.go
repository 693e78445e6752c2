package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"EngineGate/internal/domain/models"
	drepo "EngineGate/internal/domain/repository"
	domsvc "EngineGate/internal/domain/service"
	applogger "EngineGate/pkg/logger"
)

const notifyTimeout = 10 * time.Second

// RouterConfig holds the policy knobs of the engine router.
type RouterConfig struct {
	Secret     string
	EngineLock bool
	Known      models.EngineSet
	Aggressive models.EngineSet
}

type RouterOption func(*EngineRouter)

func WithClock(now func() time.Time) RouterOption {
	return func(r *EngineRouter) { r.now = now }
}

func WithIDGenerator(next func() string) RouterOption {
	return func(r *EngineRouter) { r.newID = next }
}

func WithRouterLogger(l *applogger.Logger) RouterOption {
	return func(r *EngineRouter) { r.log = l }
}

func WithRouterMetrics(m drepo.Metrics) RouterOption {
	return func(r *EngineRouter) { r.metrics = m }
}

// WithNotifier sends a short message for every accepted or conflicting delivery.
func WithNotifier(n domsvc.Notifier) RouterOption {
	return func(r *EngineRouter) { r.notifier = n }
}

// EngineRouter authenticates webhook deliveries, enforces the engine lock and
// records everything it sees.
type EngineRouter struct {
	cfg      RouterConfig
	store    drepo.StateStore
	audit    drepo.AuditTrail
	metrics  drepo.Metrics
	notifier domsvc.Notifier
	log      *applogger.Logger
	now      func() time.Time
	newID    func() string

	notifyWG sync.WaitGroup
}

func NewEngineRouter(cfg RouterConfig, store drepo.StateStore, audit drepo.AuditTrail, opts ...RouterOption) *EngineRouter {
	r := &EngineRouter{
		cfg:   cfg,
		store: store,
		audit: audit,
		log:   applogger.Nop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cfg.Known == nil {
		r.cfg.Known = models.NewEngineSet()
	}
	if r.cfg.Aggressive == nil {
		r.cfg.Aggressive = models.NewEngineSet()
	}
	return r
}

// Route processes one delivery. Refusals are *models.RouteError; any other
// error means the router state could not be read or written.
func (r *EngineRouter) Route(ctx context.Context, d models.Delivery) (models.NormalizedEvent, error) {
	start := r.now()
	id := r.newID()
	log := r.log.With(applogger.String("delivery_id", id), applogger.String("source", d.Source))

	if err := r.audit.AppendRaw(ctx, models.RawRecord{
		DeliveryID: id,
		ReceivedAt: start,
		Source:     d.Source,
		Remote:     d.Remote,
		Body:       d.Body,
		Truncated:  d.Incomplete != nil,
	}); err != nil {
		log.Error("raw log append failed", applogger.Error(err))
		r.recordError("audit_raw")
	}

	if d.Incomplete != nil {
		r.reject(log, d.Incomplete, models.EngineUnknown)
		return models.NormalizedEvent{}, d.Incomplete
	}

	ev, err := r.admit(id, d.Body)
	if err != nil {
		r.reject(log, err, models.EngineUnknown)
		return models.NormalizedEvent{}, err
	}

	if r.cfg.Aggressive.Contains(ev.Engine) {
		if err := r.claim(ctx, ev.Engine, start); err != nil {
			var re *models.RouteError
			if errors.As(err, &re) {
				r.reject(log, err, ev.Engine)
				r.notify(conflictNotice(re, ev))
				return models.NormalizedEvent{}, err
			}
			log.Error("router state update failed", applogger.Error(err))
			r.recordError("state_store")
			r.recordDecision("error", ev.Engine)
			return models.NormalizedEvent{}, fmt.Errorf("update router state: %w", err)
		}
		if r.metrics != nil {
			r.metrics.RecordActiveEngine(string(ev.Engine))
		}
	}

	if err := r.audit.AppendJournal(ctx, models.JournalEntry{At: start, Event: ev}); err != nil {
		log.Error("journal append failed", applogger.Error(err))
		r.recordError("audit_journal")
	}

	r.recordDecision("accepted", ev.Engine)
	if r.metrics != nil {
		r.metrics.RecordLatency("route", r.now().Sub(start).Seconds())
	}
	log.Info("delivery accepted",
		applogger.String("engine", string(ev.Engine)),
		applogger.String("signal", ev.Signal),
		applogger.String("symbol", ev.Symbol),
		applogger.String("tf", ev.TF),
	)
	r.notify(acceptNotice(ev))
	return ev, nil
}

// State returns the current lock record.
func (r *EngineRouter) State(ctx context.Context) (models.RouterState, error) {
	return r.store.Load(ctx)
}

// Ready reports whether deliveries can be accepted at all.
func (r *EngineRouter) Ready() bool {
	return r.cfg.Secret != ""
}

// Wait blocks until pending notifications are sent.
func (r *EngineRouter) Wait() {
	r.notifyWG.Wait()
}

// admit checks body shape and credential, then normalizes and allow-lists the engine.
func (r *EngineRouter) admit(id string, body []byte) (models.NormalizedEvent, error) {
	if err := checkObject(body); err != nil {
		return models.NormalizedEvent{}, err
	}
	if r.cfg.Secret == "" {
		return models.NormalizedEvent{}, models.NewMisconfigured()
	}
	key := topLevel(body)["key"]
	if key.Type != gjson.String || subtle.ConstantTimeCompare([]byte(key.Str), []byte(r.cfg.Secret)) != 1 {
		return models.NormalizedEvent{}, models.NewInvalidCredential()
	}

	ev, err := Normalize(id, body)
	if err != nil {
		return models.NormalizedEvent{}, err
	}
	if !r.cfg.Known.Contains(ev.Engine) {
		ev.Engine = models.EngineUnknown
		ev.Payload["engine"] = string(models.EngineUnknown)
	}
	return ev, nil
}

// claim checks the lock and records engine as active in one store update.
func (r *EngineRouter) claim(ctx context.Context, engine models.Engine, at time.Time) error {
	return r.store.Update(ctx, func(st *models.RouterState) (bool, error) {
		if r.cfg.EngineLock && st.HasActive() &&
			r.cfg.Aggressive.Contains(st.ActiveEngine) && st.ActiveEngine != engine {
			return false, models.NewEngineConflict(st.ActiveEngine, engine)
		}
		ts := at
		st.ActiveEngine = engine
		st.UpdatedAt = &ts
		return true, nil
	})
}

func (r *EngineRouter) reject(log *applogger.Logger, err error, engine models.Engine) {
	var re *models.RouteError
	if !errors.As(err, &re) {
		return
	}
	log.Warn("delivery rejected",
		applogger.String("kind", string(re.Kind)),
		applogger.String("engine", string(engine)),
		applogger.String("reason", re.Message),
	)
	r.recordDecision(string(re.Kind), engine)
}

func (r *EngineRouter) recordDecision(outcome string, engine models.Engine) {
	if r.metrics != nil {
		r.metrics.RecordDecision(outcome, string(engine))
	}
}

func (r *EngineRouter) recordError(kind string) {
	if r.metrics != nil {
		r.metrics.RecordError(kind)
	}
}

func (r *EngineRouter) notify(text string) {
	if r.notifier == nil {
		return
	}
	r.notifyWG.Add(1)
	go func() {
		defer r.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := r.notifier.Notify(ctx, text); err != nil {
			r.log.Warn("notification failed", applogger.Error(err))
			r.recordError("notify")
		}
	}()
}

func acceptNotice(ev models.NormalizedEvent) string {
	return fmt.Sprintf("<b>%s</b> %s %s %s\nprice <code>%g</code> tp <code>%g</code> sl <code>%g</code>",
		html.EscapeString(string(ev.Engine)),
		html.EscapeString(ev.Signal),
		html.EscapeString(ev.Symbol),
		html.EscapeString(ev.TF),
		ev.Price, ev.TP, ev.SL,
	)
}

func conflictNotice(re *models.RouteError, ev models.NormalizedEvent) string {
	return fmt.Sprintf("<b>refused</b> %s %s %s\n%s",
		html.EscapeString(string(ev.Engine)),
		html.EscapeString(ev.Signal),
		html.EscapeString(ev.Symbol),
		html.EscapeString(re.Message),
	)
}
