package domain

import (
	"errors"
	"fmt"
)

var (
	// Money and account errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrInvalidAmount     = errors.New("amount must be positive")

	// Orchestration errors
	ErrDuplicateOperation  = errors.New("operation already processed or in flight")
	ErrMissingOperationKey = errors.New("operation key is required")
	ErrStepUpRequired      = errors.New("step-up authentication was not completed")
)

// InvalidStateTransitionError reports an illegal transaction state change.
// It signals a programming error, not a business failure, and should never
// surface to an end user.
type InvalidStateTransitionError struct {
	From TransactionStatus
	To   TransactionStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid transaction state transition from %s to %s", e.From, e.To)
}

// SecurityBlockError is the risk engine's veto on a transfer. Callers must
// not retry with the same parameters.
type SecurityBlockError struct {
	Level  RiskLevel
	Score  int
	Reason string
}

func (e *SecurityBlockError) Error() string {
	return fmt.Sprintf("transfer blocked by risk engine (%s, score %d): %s", e.Level, e.Score, e.Reason)
}
