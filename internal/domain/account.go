package domain

import "time"

// ExternalCounterparty is the sender reference used for inbound movements
// whose origin is outside this ledger.
const ExternalCounterparty = "external"

// IDGenerator produces unique identifiers for domain entities.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time. Injected so tests can be deterministic.
type Clock interface {
	Now() time.Time
}

// Account is the aggregate that owns a balance and its transaction history.
// It is the only place balance is mutated.
//
// Account is not internally synchronized. Callers must enforce a
// single-writer-per-account discipline; concurrent Credit/Debit on the same
// aggregate is undefined.
type Account struct {
	id      string
	balance Money
	history []*Transaction
	idGen   IDGenerator
	clock   Clock
}

// NewAccount creates an account with an opening balance, possibly zero.
func NewAccount(id string, opening Money, idGen IDGenerator, clock Clock) *Account {
	return &Account{
		id:      id,
		balance: opening,
		idGen:   idGen,
		clock:   clock,
	}
}

// ID returns the account identifier.
func (a *Account) ID() string {
	return a.id
}

// Balance returns the current balance.
func (a *Account) Balance() Money {
	return a.balance
}

// Credit increases the balance and returns the settled inbound record. An
// empty sender means the origin is external to this ledger. Credit cannot
// fail: addition has no overdraft guard to trip.
func (a *Account) Credit(amount Money, description, sender, correlationID string) *Transaction {
	if sender == "" {
		sender = ExternalCounterparty
	}

	a.balance = a.balance.Add(amount)

	txn := NewTransaction(a.idGen.Generate(), correlationID, amount, DirectionInbound, description, sender, a.id, a.clock.Now())
	_ = txn.Settle() // fresh records settle unconditionally
	a.history = append([]*Transaction{txn}, a.history...)

	return txn
}

// Debit decreases the balance and returns the settled outbound record. The
// operation is all-or-nothing: the overdraft check runs before any record is
// constructed, and a failed debit leaves balance and history untouched.
func (a *Account) Debit(amount Money, description, receiver, correlationID string) (*Transaction, error) {
	remaining, err := a.balance.Subtract(amount)
	if err != nil {
		return nil, err
	}

	a.balance = remaining

	txn := NewTransaction(a.idGen.Generate(), correlationID, amount, DirectionOutbound, description, a.id, receiver, a.clock.Now())
	_ = txn.Settle()
	a.history = append([]*Transaction{txn}, a.history...)

	return txn, nil
}

// RecentHistory returns up to limit records, most-recent-first. It never
// mutates state; the returned slice is a copy.
func (a *Account) RecentHistory(limit int) []*Transaction {
	if limit <= 0 || limit > len(a.history) {
		limit = len(a.history)
	}

	out := make([]*Transaction, limit)
	copy(out, a.history[:limit])

	return out
}
