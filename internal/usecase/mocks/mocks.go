// Package mocks provides hand-written test doubles for the usecase
// collaborator interfaces. Each mock admits/passes by default and can be
// overridden per test via its Func field.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/kobopay/walletcore/internal/domain"
)

// MockRiskAssessor is a mock implementation of usecase.RiskAssessor.
type MockRiskAssessor struct {
	AssessFunc func(ctx context.Context, amount domain.Money, receiver string) domain.RiskAssessment
}

func (m *MockRiskAssessor) Assess(ctx context.Context, amount domain.Money, receiver string) domain.RiskAssessment {
	if m.AssessFunc != nil {
		return m.AssessFunc(ctx, amount, receiver)
	}
	return domain.RiskAssessment{Level: domain.RiskSafe, Score: 5, Reason: "mock default"}
}

// MockIdempotencyGuard is a mock implementation of usecase.IdempotencyGuard.
// By default it behaves like a real in-memory guard without expiry.
type MockIdempotencyGuard struct {
	mu       sync.Mutex
	admitted []string

	AdmitFunc func(ctx context.Context, operationKey string) error
}

func (m *MockIdempotencyGuard) Admit(ctx context.Context, operationKey string) error {
	if m.AdmitFunc != nil {
		return m.AdmitFunc(ctx, operationKey)
	}

	if operationKey == "" {
		return domain.ErrMissingOperationKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range m.admitted {
		if key == operationKey {
			return domain.ErrDuplicateOperation
		}
	}
	m.admitted = append(m.admitted, operationKey)

	return nil
}

// AdmittedKeys returns the keys consumed so far.
func (m *MockIdempotencyGuard) AdmittedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.admitted))
	copy(out, m.admitted)

	return out
}

// MockStepUpAuthenticator is a mock implementation of
// usecase.StepUpAuthenticator. It succeeds by default.
type MockStepUpAuthenticator struct {
	mu         sync.Mutex
	challenges int

	ChallengeFunc func(ctx context.Context, actorID string, amount domain.Money, level domain.RiskLevel) (bool, error)
}

func (m *MockStepUpAuthenticator) Challenge(ctx context.Context, actorID string, amount domain.Money, level domain.RiskLevel) (bool, error) {
	m.mu.Lock()
	m.challenges++
	m.mu.Unlock()

	if m.ChallengeFunc != nil {
		return m.ChallengeFunc(ctx, actorID, amount, level)
	}
	return true, nil
}

// Challenges returns how many times a challenge was issued.
func (m *MockStepUpAuthenticator) Challenges() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challenges
}

// MockAuditRecorder is a mock implementation of usecase.AuditRecorder that
// retains recorded entries for inspection.
type MockAuditRecorder struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
	n       int

	RecordFunc func(ctx context.Context, actorID string, action domain.AuditAction, metadata map[string]any) *domain.AuditEntry
}

func (m *MockAuditRecorder) Record(ctx context.Context, actorID string, action domain.AuditAction, metadata map[string]any) *domain.AuditEntry {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, actorID, action, metadata)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.n++
	entry := &domain.AuditEntry{
		ID:        "mock-audit",
		ActorID:   actorID,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	m.entries = append(m.entries, entry)

	return entry
}

// Entries returns the recorded entries in order.
func (m *MockAuditRecorder) Entries() []*domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.AuditEntry, len(m.entries))
	copy(out, m.entries)

	return out
}

// Actions returns the recorded action kinds in order.
func (m *MockAuditRecorder) Actions() []domain.AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.AuditAction, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}

	return out
}
