package domain

import "time"

// AuditAction identifies the kind of sensitive action an audit entry records.
type AuditAction string

const (
	AuditActionTransferSent     AuditAction = "transfer_sent"
	AuditActionTransferReceived AuditAction = "transfer_received"
	AuditActionAuthSuccess      AuditAction = "auth_success"
	AuditActionAuthFailure      AuditAction = "auth_failure"
	AuditActionLimitReached     AuditAction = "limit_reached"
	AuditActionRiskFlag         AuditAction = "risk_flag"
	AuditActionDuplicateBlocked AuditAction = "duplicate_blocked"
)

// AuditEntry is one append-only record of a sensitive action. The integrity
// stamp is a keyed hash over the remaining fields in a fixed order;
// recomputing it must reproduce the stored value, and any mismatch signals
// tampering. Entries are never mutated or deleted.
type AuditEntry struct {
	ID        string
	ActorID   string
	Action    AuditAction
	Metadata  map[string]any
	CreatedAt time.Time
	Stamp     string
}

// ToRecord flattens the entry for an external sink. Metadata keys that would
// shadow the fixed fields are skipped.
func (e *AuditEntry) ToRecord() map[string]any {
	record := map[string]any{
		"id":              e.ID,
		"actor_id":        e.ActorID,
		"action":          string(e.Action),
		"timestamp":       e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"integrity_stamp": e.Stamp,
	}

	for k, v := range e.Metadata {
		if _, reserved := record[k]; reserved {
			continue
		}
		record[k] = v
	}

	return record
}
