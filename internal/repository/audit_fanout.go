package repository

import (
	"context"
	"sync"
	"time"

	"EngineGate/internal/domain/models"
	"EngineGate/internal/domain/repository"
	applogger "EngineGate/pkg/logger"
)

const (
	mirrorQueueSize = 1024
	mirrorTimeout   = 5 * time.Second
)

type mirrorJob struct {
	raw     *models.RawRecord
	journal *models.JournalEntry
}

// AuditFanout writes to a primary trail synchronously and copies every record
// to optional mirrors from a background worker. Mirror failures and overflow
// are logged and counted, never returned.
type AuditFanout struct {
	primary repository.AuditTrail
	mirrors []repository.AuditTrail
	log     *applogger.Logger
	metrics repository.Metrics

	// mu guards closed and the send side of queue.
	mu        sync.RWMutex
	closed    bool
	queue     chan mirrorJob
	done      chan struct{}
	closeOnce sync.Once
}

func NewAuditFanout(primary repository.AuditTrail, mirrors []repository.AuditTrail, l *applogger.Logger, m repository.Metrics) *AuditFanout {
	if l == nil {
		l = applogger.Nop()
	}
	f := &AuditFanout{
		primary: primary,
		mirrors: mirrors,
		log:     l,
		metrics: m,
		queue:   make(chan mirrorJob, mirrorQueueSize),
		done:    make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *AuditFanout) AppendRaw(ctx context.Context, rec models.RawRecord) error {
	err := f.primary.AppendRaw(ctx, rec)
	f.enqueue(mirrorJob{raw: &rec})
	return err
}

func (f *AuditFanout) AppendJournal(ctx context.Context, entry models.JournalEntry) error {
	err := f.primary.AppendJournal(ctx, entry)
	f.enqueue(mirrorJob{journal: &entry})
	return err
}

// Close drains queued mirror writes, then closes every trail.
func (f *AuditFanout) Close() error {
	var firstErr error
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		close(f.queue)
		f.mu.Unlock()
		<-f.done
		firstErr = f.primary.Close()
		for _, m := range f.mirrors {
			if err := m.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

func (f *AuditFanout) enqueue(job mirrorJob) {
	if len(f.mirrors) == 0 {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		f.log.Warn("audit mirror closed, dropping record")
		f.recordError("audit_mirror_closed")
		return
	}
	select {
	case f.queue <- job:
	default:
		f.log.Warn("audit mirror queue full, dropping record")
		f.recordError("audit_mirror_overflow")
	}
}

func (f *AuditFanout) run() {
	defer close(f.done)
	for job := range f.queue {
		for _, m := range f.mirrors {
			ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
			var err error
			if job.raw != nil {
				err = m.AppendRaw(ctx, *job.raw)
			} else if job.journal != nil {
				err = m.AppendJournal(ctx, *job.journal)
			}
			cancel()
			if err != nil {
				f.log.Warn("audit mirror write failed", applogger.Error(err))
				f.recordError("audit_mirror")
			}
		}
	}
}

func (f *AuditFanout) recordError(kind string) {
	if f.metrics != nil {
		f.metrics.RecordError(kind)
	}
}

var _ repository.AuditTrail = (*AuditFanout)(nil)
