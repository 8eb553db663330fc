// Package postgres implements the durable audit sink on top of pgx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kobopay/walletcore/internal/domain"
)

// AuditRepository persists audit entries in the audit_entries table. It
// implements both audit.Store and audit.Reader.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append inserts an audit entry. Entries are never updated or deleted.
func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_entries (id, actor_id, action, metadata, created_at, integrity_stamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.ActorID,
		string(entry.Action),
		metadata,
		entry.CreatedAt,
		entry.Stamp,
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// List returns up to limit entries, most recent first. A limit of zero or
// less returns everything.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, actor_id, action, metadata, created_at, integrity_stamp
		FROM audit_entries
		ORDER BY created_at DESC, id DESC
	`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var (
			entry    domain.AuditEntry
			action   string
			metadata []byte
		)

		if err := rows.Scan(&entry.ID, &entry.ActorID, &action, &metadata, &entry.CreatedAt, &entry.Stamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.Action = domain.AuditAction(action)

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}
