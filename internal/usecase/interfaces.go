package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/kobopay/walletcore/internal/domain"
)

// RiskAssessor scores a proposed transfer before any state changes.
type RiskAssessor interface {
	Assess(ctx context.Context, amount domain.Money, receiver string) domain.RiskAssessment
}

// IdempotencyGuard is the admission gate against duplicate submission. Admit
// must be atomic against a shared store; it is consulted before any
// balance-mutating call and the key is never released within the retention
// window, even when the downstream operation fails.
type IdempotencyGuard interface {
	Admit(ctx context.Context, operationKey string) error
}

// StepUpAuthenticator runs an out-of-band authentication challenge (one-time
// code, biometric confirmation). Only an explicit true grants permission to
// continue.
type StepUpAuthenticator interface {
	Challenge(ctx context.Context, actorID string, amount domain.Money, level domain.RiskLevel) (bool, error)
}

// StepUpFunc adapts a function to the StepUpAuthenticator interface.
type StepUpFunc func(ctx context.Context, actorID string, amount domain.Money, level domain.RiskLevel) (bool, error)

func (f StepUpFunc) Challenge(ctx context.Context, actorID string, amount domain.Money, level domain.RiskLevel) (bool, error) {
	return f(ctx, actorID, amount, level)
}

// AuditRecorder records sensitive actions. Recording is fire-and-forget; it
// never fails the originating operation.
type AuditRecorder interface {
	Record(ctx context.Context, actorID string, action domain.AuditAction, metadata map[string]any) *domain.AuditEntry
}

// NewOperationKey generates an opaque key for one logical user intent.
// Callers normally supply their own; this helper serves the ones that don't
// have a transport-level key to forward.
func NewOperationKey() string {
	return uuid.NewString()
}
