// Package redis implements the shared-store adapters: the idempotency guard
// and the audit stream sink.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kobopay/walletcore/internal/domain"
)

const lockedValue = "locked"

// IdempotencyGuard is the admission gate against duplicate submission of the
// same logical operation. Admit is atomic (SETNX) against the shared store,
// so it holds under concurrent duplicate submissions across processes.
type IdempotencyGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewIdempotencyGuard creates a guard whose keys stay locked for ttl, the
// retention window. A non-positive ttl falls back to 24 hours.
func NewIdempotencyGuard(client *redis.Client, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &IdempotencyGuard{
		client: client,
		prefix: "walletcore:idempotency:",
		ttl:    ttl,
	}
}

// Admit locks operationKey for the retention window. A key already locked
// within the window fails with ErrDuplicateOperation regardless of how the
// first submission fared downstream; the slot is never released early.
func (g *IdempotencyGuard) Admit(ctx context.Context, operationKey string) error {
	if operationKey == "" {
		return domain.ErrMissingOperationKey
	}

	set, err := g.client.SetNX(ctx, g.prefix+operationKey, lockedValue, g.ttl).Result()
	if err != nil {
		return fmt.Errorf("idempotency admit: %w", err)
	}

	if !set {
		return domain.ErrDuplicateOperation
	}

	return nil
}
