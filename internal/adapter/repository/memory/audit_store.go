package memory

import (
	"context"
	"sync"

	"github.com/kobopay/walletcore/internal/domain"
)

// AuditStore keeps audit entries in an append-only in-process slice. Appended
// entries are copied so later caller mutations cannot rewrite history.
type AuditStore struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

// NewAuditStore creates an empty store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Append stores a copy of the entry.
func (s *AuditStore) Append(_ context.Context, entry *domain.AuditEntry) error {
	stored := *entry
	if entry.Metadata != nil {
		stored.Metadata = make(map[string]any, len(entry.Metadata))
		for k, v := range entry.Metadata {
			stored.Metadata[k] = v
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &stored)

	return nil
}

// List returns up to limit entries, most recent first. A limit of zero or
// less returns everything.
func (s *AuditStore) List(_ context.Context, limit int) ([]*domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}

	out := make([]*domain.AuditEntry, 0, limit)
	for i := len(s.entries) - 1; i >= len(s.entries)-limit; i-- {
		out = append(out, s.entries[i])
	}

	return out, nil
}
