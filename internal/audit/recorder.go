package audit

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/kobopay/walletcore/internal/domain"
	"github.com/kobopay/walletcore/internal/infrastructure/metrics"
)

const maxAppendRetries = 5

// Store is an append-only destination for audit entries.
type Store interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}

// Reader lists stored entries, most recent first. A limit of zero or less
// means no limit.
type Reader interface {
	List(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

// Recorder builds, stamps and persists audit entries. It is constructed
// explicitly at process start and closed at shutdown; there is no process-wide
// singleton.
//
// Record never fails the caller. When the synchronous append fails the entry
// is queued and retried in the background with exponential backoff.
type Recorder struct {
	store   Store
	stamper *Stamper
	idGen   domain.IDGenerator
	clock   domain.Clock
	logger  zerolog.Logger
	metrics *metrics.Metrics

	queue chan *domain.AuditEntry
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewRecorder creates a Recorder and starts its retry worker. queueSize
// bounds the number of entries buffered while the store is unavailable.
func NewRecorder(store Store, stamper *Stamper, idGen domain.IDGenerator, clock domain.Clock, logger zerolog.Logger, m *metrics.Metrics, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}

	r := &Recorder{
		store:   store,
		stamper: stamper,
		idGen:   idGen,
		clock:   clock,
		logger:  logger,
		metrics: m,
		queue:   make(chan *domain.AuditEntry, queueSize),
	}

	r.wg.Add(1)
	go r.retryLoop()

	return r
}

// Record constructs a stamped entry, appends it to the store and returns it.
// Persistence failures are retried out-of-band and never propagate.
func (r *Recorder) Record(ctx context.Context, actorID string, action domain.AuditAction, metadata map[string]any) *domain.AuditEntry {
	entry := &domain.AuditEntry{
		ID:       r.idGen.Generate(),
		ActorID:  actorID,
		Action:   action,
		Metadata: metadata,
		// TIMESTAMPTZ keeps microseconds; anything finer could not be
		// reproduced from the durable store when recomputing the stamp.
		CreatedAt: r.clock.Now().Truncate(time.Microsecond),
	}

	stamp, err := r.stamper.Stamp(entry)
	if err != nil {
		// Metadata that cannot be serialized still deserves a trace entry;
		// the stamp stays empty and verification will flag it.
		r.logger.Error().Err(err).Str("action", string(action)).Msg("audit entry could not be stamped")
	}
	entry.Stamp = stamp

	if err := r.store.Append(ctx, entry); err != nil {
		r.metrics.AuditAppendErrors.Inc()
		r.logger.Warn().Err(err).Str("audit_id", entry.ID).Msg("audit append failed, queued for retry")
		r.enqueue(entry)
		return entry
	}

	r.metrics.AuditAppends.Inc()

	return entry
}

func (r *Recorder) enqueue(entry *domain.AuditEntry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.metrics.AuditDropped.Inc()
		r.logger.Error().Str("audit_id", entry.ID).Msg("recorder closed, audit entry dropped")
		return
	}

	select {
	case r.queue <- entry:
	default:
		r.metrics.AuditDropped.Inc()
		r.logger.Error().Str("audit_id", entry.ID).Msg("audit retry queue full, entry dropped")
	}
}

func (r *Recorder) retryLoop() {
	defer r.wg.Done()

	for entry := range r.queue {
		policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAppendRetries)

		err := backoff.Retry(func() error {
			r.metrics.AuditRetries.Inc()
			return r.store.Append(context.Background(), entry)
		}, policy)
		if err != nil {
			r.metrics.AuditDropped.Inc()
			r.logger.Error().Err(err).Str("audit_id", entry.ID).Msg("audit entry lost after retries")
			continue
		}

		r.metrics.AuditAppends.Inc()
	}
}

// Close stops accepting new retry work and drains the queue.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.queue)
	r.wg.Wait()
}

// VerifyAll recomputes integrity stamps for every stored entry and returns
// the IDs whose stamps do not match, in store order.
func VerifyAll(ctx context.Context, reader Reader, stamper *Stamper) ([]string, error) {
	entries, err := reader.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	var mismatched []string
	for _, entry := range entries {
		ok, err := stamper.Verify(entry)
		if err != nil {
			return nil, err
		}
		if !ok {
			mismatched = append(mismatched, entry.ID)
		}
	}

	return mismatched, nil
}
