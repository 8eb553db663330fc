// Package memory provides in-process implementations of the idempotency
// guard and audit store for tests and single-process embedding.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kobopay/walletcore/internal/domain"
)

// IdempotencyGuard is a mutex-guarded check-and-set over an in-process map.
// It honors the same retention-window contract as the Redis guard but does
// not survive process restarts.
type IdempotencyGuard struct {
	mu     sync.Mutex
	ttl    time.Duration
	clock  domain.Clock
	locked map[string]time.Time
}

// NewIdempotencyGuard creates a guard with the given retention window.
func NewIdempotencyGuard(ttl time.Duration, clock domain.Clock) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &IdempotencyGuard{
		ttl:    ttl,
		clock:  clock,
		locked: make(map[string]time.Time),
	}
}

// Admit locks operationKey for the retention window; a key still locked fails
// with ErrDuplicateOperation.
func (g *IdempotencyGuard) Admit(_ context.Context, operationKey string) error {
	if operationKey == "" {
		return domain.ErrMissingOperationKey
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if expiry, ok := g.locked[operationKey]; ok && now.Before(expiry) {
		return domain.ErrDuplicateOperation
	}

	g.locked[operationKey] = now.Add(g.ttl)

	return nil
}
