package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kobopay/walletcore/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

func TestIdempotencyGuard_DuplicateWithinWindow(t *testing.T) {
	clock := &fakeClock{at: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	guard := NewIdempotencyGuard(24*time.Hour, clock)
	ctx := context.Background()

	if err := guard.Admit(ctx, "key-1"); err != nil {
		t.Fatalf("first admit failed: %v", err)
	}

	if err := guard.Admit(ctx, "key-1"); !errors.Is(err, domain.ErrDuplicateOperation) {
		t.Fatalf("expected ErrDuplicateOperation, got %v", err)
	}

	clock.Advance(25 * time.Hour)

	if err := guard.Admit(ctx, "key-1"); err != nil {
		t.Fatalf("expected admission after window, got %v", err)
	}
}

func TestIdempotencyGuard_MissingKey(t *testing.T) {
	guard := NewIdempotencyGuard(time.Hour, &fakeClock{at: time.Now()})

	if err := guard.Admit(context.Background(), ""); !errors.Is(err, domain.ErrMissingOperationKey) {
		t.Fatalf("expected ErrMissingOperationKey, got %v", err)
	}
}

func TestIdempotencyGuard_ConcurrentDuplicates(t *testing.T) {
	guard := NewIdempotencyGuard(time.Hour, &fakeClock{at: time.Now()})
	ctx := context.Background()

	const submissions = 32

	var wg sync.WaitGroup
	results := make(chan error, submissions)

	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- guard.Admit(ctx, "double-tap")
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for err := range results {
		if err == nil {
			admitted++
		}
	}

	if admitted != 1 {
		t.Fatalf("expected exactly one admission, got %d", admitted)
	}
}

func TestAuditStore_AppendCopiesEntry(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()

	entry := &domain.AuditEntry{
		ID:       "audit-1",
		ActorID:  "acc-1",
		Action:   domain.AuditActionTransferSent,
		Metadata: map[string]any{"receiver": "acc-2"},
	}

	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	entry.Metadata["receiver"] = "acc-evil"

	stored, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(stored))
	}
	if stored[0].Metadata["receiver"] != "acc-2" {
		t.Errorf("stored entry was mutated after append: %v", stored[0].Metadata["receiver"])
	}
}

func TestAuditStore_ListOrderAndLimit(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()

	for _, id := range []string{"audit-1", "audit-2", "audit-3"} {
		if err := store.Append(ctx, &domain.AuditEntry{ID: id}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	recent, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].ID != "audit-3" || recent[1].ID != "audit-2" {
		t.Errorf("entries not most-recent-first: %s, %s", recent[0].ID, recent[1].ID)
	}
}
