package domain

import "time"

// TransactionStatus is the state of a transaction record.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusSettled  TransactionStatus = "settled"
	StatusRejected TransactionStatus = "rejected"
)

// TransactionDirection indicates whether money moved into or out of the
// account that owns the record.
type TransactionDirection string

const (
	DirectionInbound  TransactionDirection = "inbound"
	DirectionOutbound TransactionDirection = "outbound"
)

// Transaction represents one ledger movement. It starts pending and moves to
// exactly one of the terminal states, settled or rejected. Terminal states
// are final.
type Transaction struct {
	ID            string
	CorrelationID string
	Amount        Money
	Direction     TransactionDirection
	Description   string
	Sender        string
	Receiver      string
	CreatedAt     time.Time
	Status        TransactionStatus
	RejectReason  string
}

// NewTransaction constructs a pending transaction record. The correlation ID
// groups a logical operation across retries and may be empty for internal
// movements.
func NewTransaction(id, correlationID string, amount Money, direction TransactionDirection, description, sender, receiver string, createdAt time.Time) *Transaction {
	return &Transaction{
		ID:            id,
		CorrelationID: correlationID,
		Amount:        amount,
		Direction:     direction,
		Description:   description,
		Sender:        sender,
		Receiver:      receiver,
		CreatedAt:     createdAt,
		Status:        StatusPending,
	}
}

// Settle marks the record as finally applied. Settling an already settled
// record is a no-op so the settlement step tolerates at-least-once retries.
func (t *Transaction) Settle() error {
	switch t.Status {
	case StatusSettled:
		return nil
	case StatusRejected:
		return &InvalidStateTransitionError{From: StatusRejected, To: StatusSettled}
	}

	t.Status = StatusSettled
	return nil
}

// Reject marks the record as rejected and records the reason for audit. It is
// allowed from pending only; both terminal states refuse the transition.
func (t *Transaction) Reject(reason string) error {
	if t.Status != StatusPending {
		return &InvalidStateTransitionError{From: t.Status, To: StatusRejected}
	}

	t.Status = StatusRejected
	t.RejectReason = reason
	return nil
}
