package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kobopay/walletcore/internal/domain"
	"github.com/kobopay/walletcore/internal/infrastructure/metrics"
)

// TransferUseCase orchestrates outbound transfers: risk pre-check, step-up
// gating, idempotent admission, balance mutation and audit recording.
//
// It assumes the single-writer-per-account discipline of the domain layer;
// concurrent calls for the same account must be serialized by the caller.
type TransferUseCase struct {
	risk    RiskAssessor
	guard   IdempotencyGuard
	stepUp  StepUpAuthenticator
	audit   AuditRecorder
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	risk RiskAssessor,
	guard IdempotencyGuard,
	stepUp StepUpAuthenticator,
	audit AuditRecorder,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *TransferUseCase {
	return &TransferUseCase{
		risk:    risk,
		guard:   guard,
		stepUp:  stepUp,
		audit:   audit,
		metrics: m,
		logger:  logger,
	}
}

// ExecuteTransferInput represents one logical send operation.
type ExecuteTransferInput struct {
	Account      *domain.Account
	Amount       domain.Money
	Receiver     string
	Description  string
	OperationKey string
}

// ReceiveTransferInput represents an inbound movement applied to an account.
type ReceiveTransferInput struct {
	Account     *domain.Account
	Amount      domain.Money
	Sender      string
	Description string
}

// ExecuteTransfer runs the orchestrated transfer pipeline and returns the
// settled outbound record.
//
// Failure ordering is part of the contract: a critical risk verdict blocks
// before the idempotency key is consumed and before any balance mutation; a
// failed debit leaves the key consumed so resubmission of the same intent
// stays blocked for the retention window.
func (uc *TransferUseCase) ExecuteTransfer(ctx context.Context, input ExecuteTransferInput) (*domain.Transaction, error) {
	start := time.Now()

	if input.Amount.IsZero() {
		uc.metrics.TransferFailures.WithLabelValues(metrics.FailureInvalidAmount).Inc()
		return nil, domain.ErrInvalidAmount
	}

	assessment := uc.risk.Assess(ctx, input.Amount, input.Receiver)
	uc.metrics.RiskAssessments.WithLabelValues(assessment.Level.String()).Inc()

	if assessment.Level == domain.RiskCritical {
		uc.audit.Record(ctx, input.Account.ID(), domain.AuditActionRiskFlag, map[string]any{
			"amount_cents": input.Amount.Cents(),
			"receiver":     input.Receiver,
			"score":        assessment.Score,
			"reason":       assessment.Reason,
		})
		uc.metrics.TransferFailures.WithLabelValues(metrics.FailureSecurityBlock).Inc()
		uc.logger.Warn().
			Str("account_id", input.Account.ID()).
			Str("receiver", input.Receiver).
			Int("score", assessment.Score).
			Msg("transfer blocked by risk engine")

		return nil, &domain.SecurityBlockError{
			Level:  assessment.Level,
			Score:  assessment.Score,
			Reason: assessment.Reason,
		}
	}

	if assessment.Level.RequiresStepUp() {
		if err := uc.requireStepUp(ctx, input, assessment); err != nil {
			return nil, err
		}
	}

	if err := uc.guard.Admit(ctx, input.OperationKey); err != nil {
		if errors.Is(err, domain.ErrDuplicateOperation) {
			uc.audit.Record(ctx, input.Account.ID(), domain.AuditActionDuplicateBlocked, map[string]any{
				"operation_key": input.OperationKey,
			})
			uc.metrics.TransferFailures.WithLabelValues(metrics.FailureDuplicate).Inc()
		}
		return nil, err
	}

	txn, err := input.Account.Debit(input.Amount, input.Description, input.Receiver, input.OperationKey)
	if err != nil {
		// The operation key stays consumed: a duplicate resubmission of the
		// same intent must stay blocked for the retention window.
		uc.audit.Record(ctx, input.Account.ID(), domain.AuditActionLimitReached, map[string]any{
			"amount_cents":  input.Amount.Cents(),
			"balance_cents": input.Account.Balance().Cents(),
			"receiver":      input.Receiver,
		})
		uc.metrics.TransferFailures.WithLabelValues(metrics.FailureInsufficientFunds).Inc()

		return nil, err
	}

	uc.audit.Record(ctx, input.Account.ID(), domain.AuditActionTransferSent, map[string]any{
		"amount_cents":   input.Amount.Cents(),
		"receiver":       input.Receiver,
		"transaction_id": txn.ID,
	})

	uc.metrics.TransfersExecuted.Inc()
	uc.metrics.TransferAmount.Observe(float64(input.Amount.Cents()))
	uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())

	uc.logger.Info().
		Str("account_id", input.Account.ID()).
		Str("transaction_id", txn.ID).
		Str("receiver", input.Receiver).
		Int64("amount_cents", input.Amount.Cents()).
		Msg("transfer executed")

	return txn, nil
}

func (uc *TransferUseCase) requireStepUp(ctx context.Context, input ExecuteTransferInput, assessment domain.RiskAssessment) error {
	ok, err := uc.stepUp.Challenge(ctx, input.Account.ID(), input.Amount, assessment.Level)
	if err != nil {
		uc.metrics.StepUpChallenges.WithLabelValues("error").Inc()
		return fmt.Errorf("step-up challenge: %w", err)
	}

	if !ok {
		uc.audit.Record(ctx, input.Account.ID(), domain.AuditActionAuthFailure, map[string]any{
			"risk_level":   assessment.Level.String(),
			"amount_cents": input.Amount.Cents(),
		})
		uc.metrics.StepUpChallenges.WithLabelValues("declined").Inc()
		uc.metrics.TransferFailures.WithLabelValues(metrics.FailureStepUp).Inc()

		return domain.ErrStepUpRequired
	}

	uc.audit.Record(ctx, input.Account.ID(), domain.AuditActionAuthSuccess, map[string]any{
		"risk_level": assessment.Level.String(),
	})
	uc.metrics.StepUpChallenges.WithLabelValues("passed").Inc()

	return nil
}

// ReceiveTransfer applies an inbound movement to the account and returns the
// settled inbound record. Inbound legs are initiated by the institution, so
// there is no risk gate or idempotency admission here.
func (uc *TransferUseCase) ReceiveTransfer(ctx context.Context, input ReceiveTransferInput) (*domain.Transaction, error) {
	if input.Amount.IsZero() {
		uc.metrics.TransferFailures.WithLabelValues(metrics.FailureInvalidAmount).Inc()
		return nil, domain.ErrInvalidAmount
	}

	txn := input.Account.Credit(input.Amount, input.Description, input.Sender, "")

	uc.audit.Record(ctx, input.Account.ID(), domain.AuditActionTransferReceived, map[string]any{
		"amount_cents":   input.Amount.Cents(),
		"sender":         txn.Sender,
		"transaction_id": txn.ID,
	})
	uc.metrics.TransfersReceived.Inc()

	return txn, nil
}
