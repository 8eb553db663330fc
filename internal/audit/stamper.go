// Package audit implements integrity-stamped, append-only recording of
// sensitive actions. Recording is best-effort durability: a persistence
// failure never aborts the business operation that produced the entry.
package audit

import (
	"crypto/hmac"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/kobopay/walletcore/internal/domain"
)

// ErrEmptyStampKey is returned when a Stamper is constructed without a key.
var ErrEmptyStampKey = errors.New("audit stamp key must not be empty")

// Stamper computes the tamper-evident integrity stamp of an audit entry as a
// keyed BLAKE2b-256 MAC over the entry fields in a fixed order. The same
// entry always produces the same stamp; changing any field changes it.
type Stamper struct {
	key []byte
}

// NewStamper creates a Stamper from a secret key. Keys longer than the
// BLAKE2b limit are compressed first.
func NewStamper(key []byte) (*Stamper, error) {
	if len(key) == 0 {
		return nil, ErrEmptyStampKey
	}

	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}

	return &Stamper{key: key}, nil
}

// Stamp computes the integrity stamp for an entry. Metadata is serialized as
// canonical JSON (keys sorted), so recomputation from stored fields is
// deterministic.
func (s *Stamper) Stamp(entry *domain.AuditEntry) (string, error) {
	mac, err := blake2b.New256(s.key)
	if err != nil {
		return "", fmt.Errorf("init stamp mac: %w", err)
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("serialize audit metadata: %w", err)
	}

	fmt.Fprintf(mac, "%s|%s|%s|%s|", entry.ID, entry.ActorID, entry.Action, entry.CreatedAt.UTC().Format(time.RFC3339Nano))
	mac.Write(metadata)

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the stamp from the stored fields and compares it in
// constant time against the stored value.
func (s *Stamper) Verify(entry *domain.AuditEntry) (bool, error) {
	want, err := s.Stamp(entry)
	if err != nil {
		return false, err
	}

	return hmac.Equal([]byte(want), []byte(entry.Stamp)), nil
}
