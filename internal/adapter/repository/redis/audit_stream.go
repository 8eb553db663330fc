package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kobopay/walletcore/internal/domain"
)

// AuditStream appends audit entries to a Redis stream, an append-only log
// sink. It is write-only; verification reads from a durable store instead.
type AuditStream struct {
	client *redis.Client
	stream string
}

// NewAuditStream creates a stream sink writing to the named stream.
func NewAuditStream(client *redis.Client, stream string) *AuditStream {
	if stream == "" {
		stream = "walletcore:audit"
	}

	return &AuditStream{client: client, stream: stream}
}

// Append adds the flattened entry to the stream.
func (s *AuditStream) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: entry.ToRecord(),
	}).Err(); err != nil {
		return fmt.Errorf("audit stream append: %w", err)
	}

	return nil
}
