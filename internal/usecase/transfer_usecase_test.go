package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kobopay/walletcore/internal/domain"
	"github.com/kobopay/walletcore/internal/infrastructure/ident"
	"github.com/kobopay/walletcore/internal/infrastructure/metrics"
	"github.com/kobopay/walletcore/internal/usecase"
	"github.com/kobopay/walletcore/internal/usecase/mocks"
)

type fixture struct {
	uc     *usecase.TransferUseCase
	risk   *mocks.MockRiskAssessor
	guard  *mocks.MockIdempotencyGuard
	stepUp *mocks.MockStepUpAuthenticator
	audit  *mocks.MockAuditRecorder
}

func newFixture() *fixture {
	f := &fixture{
		risk:   &mocks.MockRiskAssessor{},
		guard:  &mocks.MockIdempotencyGuard{},
		stepUp: &mocks.MockStepUpAuthenticator{},
		audit:  &mocks.MockAuditRecorder{},
	}

	f.uc = usecase.NewTransferUseCase(
		f.risk,
		f.guard,
		f.stepUp,
		f.audit,
		metrics.New(prometheus.NewRegistry()),
		zerolog.Nop(),
	)

	return f
}

func money(t *testing.T, cents int64) domain.Money {
	t.Helper()

	m, err := domain.NewMoney(cents)
	require.NoError(t, err)

	return m
}

func account(t *testing.T, openingCents int64) *domain.Account {
	t.Helper()

	return domain.NewAccount("acc-1", money(t, openingCents), ident.NewULIDGenerator(), ident.SystemClock{})
}

func assessmentAt(level domain.RiskLevel, score int) domain.RiskAssessment {
	return domain.RiskAssessment{Level: level, Score: score, Reason: "test verdict"}
}

func TestExecuteTransfer_Success(t *testing.T) {
	f := newFixture()
	acc := account(t, 10000)

	txn, err := f.uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		Account:      acc,
		Amount:       money(t, 3000),
		Receiver:     "acc-2",
		Description:  "rent",
		OperationKey: "op-1",
	})

	require.NoError(t, err)
	require.Equal(t, domain.StatusSettled, txn.Status)
	require.Equal(t, domain.DirectionOutbound, txn.Direction)
	require.Equal(t, "op-1", txn.CorrelationID)
	require.Equal(t, int64(7000), acc.Balance().Cents())

	require.Equal(t, []domain.AuditAction{domain.AuditActionTransferSent}, f.audit.Actions())
	require.Equal(t, []string{"op-1"}, f.guard.AdmittedKeys())
	require.Zero(t, f.stepUp.Challenges(), "safe transfers must not be challenged")

	entry := f.audit.Entries()[0]
	require.Equal(t, txn.ID, entry.Metadata["transaction_id"])
	require.Equal(t, "acc-2", entry.Metadata["receiver"])
}

func TestExecuteTransfer_ZeroAmountRejected(t *testing.T) {
	f := newFixture()

	_, err := f.uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		Account:      account(t, 10000),
		Amount:       money(t, 0),
		Receiver:     "acc-2",
		OperationKey: "op-1",
	})

	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	require.Empty(t, f.guard.AdmittedKeys())
}

func TestExecuteTransfer_CriticalRiskBlocksBeforeAnythingElse(t *testing.T) {
	f := newFixture()
	f.risk.AssessFunc = func(context.Context, domain.Money, string) domain.RiskAssessment {
		return assessmentAt(domain.RiskCritical, 95)
	}

	acc := account(t, 10_000_000)

	_, err := f.uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		Account:      acc,
		Amount:       money(t, 6_000_000),
		Receiver:     "acc-2",
		OperationKey: "op-1",
	})

	var blockErr *domain.SecurityBlockError
	require.ErrorAs(t, err, &blockErr)
	require.Equal(t, domain.RiskCritical, blockErr.Level)
	require.GreaterOrEqual(t, blockErr.Score, 90)

	require.Empty(t, f.guard.AdmittedKeys(), "idempotency key must not be consumed on a security block")
	require.Equal(t, int64(10_000_000), acc.Balance().Cents(), "no balance mutation on a security block")
	require.Empty(t, acc.RecentHistory(0))
	require.Equal(t, []domain.AuditAction{domain.AuditActionRiskFlag}, f.audit.Actions())
}

func TestExecuteTransfer_StepUpGating(t *testing.T) {
	tests := []struct {
		name          string
		level         domain.RiskLevel
		challengeOK   bool
		expectError   error
		expectBalance int64
		expectActions []domain.AuditAction
	}{
		{
			name:          "moderate risk passes after challenge",
			level:         domain.RiskModerate,
			challengeOK:   true,
			expectBalance: 7000,
			expectActions: []domain.AuditAction{domain.AuditActionAuthSuccess, domain.AuditActionTransferSent},
		},
		{
			name:          "high risk declined challenge blocks",
			level:         domain.RiskHigh,
			challengeOK:   false,
			expectError:   domain.ErrStepUpRequired,
			expectBalance: 10000,
			expectActions: []domain.AuditAction{domain.AuditActionAuthFailure},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.risk.AssessFunc = func(context.Context, domain.Money, string) domain.RiskAssessment {
				return assessmentAt(tt.level, 60)
			}
			f.stepUp.ChallengeFunc = func(context.Context, string, domain.Money, domain.RiskLevel) (bool, error) {
				return tt.challengeOK, nil
			}

			acc := account(t, 10000)

			_, err := f.uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
				Account:      acc,
				Amount:       money(t, 3000),
				Receiver:     "acc-2",
				OperationKey: "op-1",
			})

			if tt.expectError != nil {
				require.ErrorIs(t, err, tt.expectError)
				require.Empty(t, f.guard.AdmittedKeys(), "declined step-up must not consume the key")
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, 1, f.stepUp.Challenges())
			require.Equal(t, tt.expectBalance, acc.Balance().Cents())
			require.Equal(t, tt.expectActions, f.audit.Actions())
		})
	}
}

func TestExecuteTransfer_DuplicateOperation(t *testing.T) {
	f := newFixture()
	acc := account(t, 10000)

	input := usecase.ExecuteTransferInput{
		Account:      acc,
		Amount:       money(t, 3000),
		Receiver:     "acc-2",
		OperationKey: "op-1",
	}

	_, err := f.uc.ExecuteTransfer(context.Background(), input)
	require.NoError(t, err)

	_, err = f.uc.ExecuteTransfer(context.Background(), input)
	require.ErrorIs(t, err, domain.ErrDuplicateOperation)

	require.Equal(t, int64(7000), acc.Balance().Cents(), "duplicate must not debit twice")
	require.Len(t, acc.RecentHistory(0), 1)
	require.Contains(t, f.audit.Actions(), domain.AuditActionDuplicateBlocked)
}

func TestExecuteTransfer_MissingOperationKey(t *testing.T) {
	f := newFixture()

	_, err := f.uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		Account:  account(t, 10000),
		Amount:   money(t, 3000),
		Receiver: "acc-2",
	})

	require.ErrorIs(t, err, domain.ErrMissingOperationKey)
}

func TestExecuteTransfer_InsufficientFundsKeepsKeyConsumed(t *testing.T) {
	f := newFixture()
	acc := account(t, 7000)

	_, err := f.uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		Account:      acc,
		Amount:       money(t, 8000),
		Receiver:     "acc-2",
		OperationKey: "op-1",
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Equal(t, int64(7000), acc.Balance().Cents())
	require.Empty(t, acc.RecentHistory(0), "failed debit must not create records")
	require.Equal(t, []string{"op-1"}, f.guard.AdmittedKeys(), "failed debit does not free the idempotency slot")
	require.Equal(t, []domain.AuditAction{domain.AuditActionLimitReached}, f.audit.Actions())

	// Resubmission of the same intent stays blocked within the window.
	_, err = f.uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		Account:      acc,
		Amount:       money(t, 8000),
		Receiver:     "acc-2",
		OperationKey: "op-1",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateOperation)
}

func TestExecuteTransfer_ChallengeErrorWraps(t *testing.T) {
	f := newFixture()
	f.risk.AssessFunc = func(context.Context, domain.Money, string) domain.RiskAssessment {
		return assessmentAt(domain.RiskHigh, 75)
	}
	challengeErr := errors.New("otp gateway down")
	f.stepUp.ChallengeFunc = func(context.Context, string, domain.Money, domain.RiskLevel) (bool, error) {
		return false, challengeErr
	}

	_, err := f.uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		Account:      account(t, 10000),
		Amount:       money(t, 3000),
		Receiver:     "acc-2",
		OperationKey: "op-1",
	})

	require.ErrorIs(t, err, challengeErr)
	require.Empty(t, f.guard.AdmittedKeys())
}

func TestReceiveTransfer(t *testing.T) {
	f := newFixture()
	acc := account(t, 1000)

	txn, err := f.uc.ReceiveTransfer(context.Background(), usecase.ReceiveTransferInput{
		Account:     acc,
		Amount:      money(t, 5000),
		Description: "salary",
	})

	require.NoError(t, err)
	require.Equal(t, domain.DirectionInbound, txn.Direction)
	require.Equal(t, domain.ExternalCounterparty, txn.Sender)
	require.Equal(t, int64(6000), acc.Balance().Cents())
	require.Equal(t, []domain.AuditAction{domain.AuditActionTransferReceived}, f.audit.Actions())
}

func TestNewOperationKey_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := usecase.NewOperationKey()
		require.NotEmpty(t, key)
		require.False(t, seen[key], "operation keys must be unique")
		seen[key] = true
	}
}
