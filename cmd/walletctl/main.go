// walletctl is the operational CLI for the wallet core: audit-store
// migrations, integrity verification of the audit trail, and offline risk
// assessment against the configured policy.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kobopay/walletcore/internal/adapter/repository/memory"
	postgresRepo "github.com/kobopay/walletcore/internal/adapter/repository/postgres"
	redisRepo "github.com/kobopay/walletcore/internal/adapter/repository/redis"
	"github.com/kobopay/walletcore/internal/audit"
	"github.com/kobopay/walletcore/internal/domain"
	"github.com/kobopay/walletcore/internal/infrastructure/config"
	"github.com/kobopay/walletcore/internal/infrastructure/ident"
	"github.com/kobopay/walletcore/internal/infrastructure/logger"
	"github.com/kobopay/walletcore/internal/infrastructure/metrics"
	"github.com/kobopay/walletcore/internal/infrastructure/postgres"
	redisinfra "github.com/kobopay/walletcore/internal/infrastructure/redis"
	"github.com/kobopay/walletcore/internal/risk"
	"github.com/kobopay/walletcore/internal/usecase"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "walletctl",
		Short:         "Wallet core admin tool",
		Long:          `Operational commands for the wallet transaction core: migrations, audit verification and risk policy checks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd(), auditCmd(), riskCmd(), transferCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Audit store schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return err
			}

			fmt.Println("migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if err := postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return err
			}

			fmt.Println("migration rolled back")
			return nil
		},
	})

	return cmd
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Recompute integrity stamps for every stored entry and report tampering",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			stamper, err := audit.NewStamper([]byte(cfg.AuditStampKey))
			if err != nil {
				return fmt.Errorf("AUDIT_STAMP_KEY: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.DatabaseTimeout)
			defer cancel()

			pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
				DatabaseURL: cfg.DatabaseURL,
				MaxConns:    cfg.DatabaseMaxConns,
				MinConns:    cfg.DatabaseMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := postgresRepo.NewAuditRepository(pool)

			mismatched, err := audit.VerifyAll(ctx, repo, stamper)
			if err != nil {
				return err
			}

			if len(mismatched) > 0 {
				for _, id := range mismatched {
					fmt.Printf("TAMPERED: %s\n", id)
				}
				return fmt.Errorf("%d entries failed integrity verification", len(mismatched))
			}

			fmt.Println("audit trail verified: all stamps match")
			return nil
		},
	})

	return cmd
}

func riskCmd() *cobra.Command {
	var (
		amountMajor string
		receiver    string
	)

	assessCmd := &cobra.Command{
		Use:   "assess",
		Short: "Evaluate an amount against the configured risk policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			amount, err := domain.MoneyFromMajorString(amountMajor)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}

			threshold, err := domain.NewMoney(cfg.RiskExtremeThresholdCents)
			if err != nil {
				return fmt.Errorf("RISK_EXTREME_THRESHOLD_CENTS: %w", err)
			}

			evaluator := risk.NewEvaluator(risk.Config{
				ExtremeThreshold: threshold,
				ReceiverDenylist: cfg.RiskReceiverDenylist,
			}, nil)

			assessment := evaluator.Assess(cmd.Context(), amount, receiver)

			fmt.Printf("amount:   %s\n", amount.Format())
			fmt.Printf("level:    %s\n", assessment.Level)
			fmt.Printf("score:    %d\n", assessment.Score)
			fmt.Printf("reason:   %s\n", assessment.Reason)
			fmt.Printf("step-up:  %v\n", assessment.Level.RequiresStepUp())
			return nil
		},
	}

	assessCmd.Flags().StringVar(&amountMajor, "amount", "", "amount in major units, e.g. 1250.00")
	assessCmd.Flags().StringVar(&receiver, "receiver", "", "receiver identifier")
	_ = assessCmd.MarkFlagRequired("amount")

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Risk policy operations",
	}
	cmd.AddCommand(assessCmd)

	return cmd
}

func transferCmd() *cobra.Command {
	var (
		amountMajor  string
		balanceMajor string
		receiver     string
		description  string
		operationKey string
		useRedis     bool
	)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the full transfer pipeline against a throwaway account",
		Long: `Builds the real risk evaluator, idempotency guard and audit recorder from
the current configuration and pushes one transfer through them. The account
and the audit store are in-memory; with --redis the guard runs against the
configured Redis so duplicate keys are rejected across invocations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			amount, err := domain.MoneyFromMajorString(amountMajor)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}

			opening, err := domain.MoneyFromMajorString(balanceMajor)
			if err != nil {
				return fmt.Errorf("--balance: %w", err)
			}

			threshold, err := domain.NewMoney(cfg.RiskExtremeThresholdCents)
			if err != nil {
				return fmt.Errorf("RISK_EXTREME_THRESHOLD_CENTS: %w", err)
			}

			log := logger.New(cfg.LogLevel, cfg.LogFormat)
			m := metrics.New(prometheus.NewRegistry())
			idGen := ident.NewULIDGenerator()
			clock := ident.SystemClock{}

			var guard usecase.IdempotencyGuard = memory.NewIdempotencyGuard(cfg.IdempotencyTTL, clock)
			if useRedis {
				client, err := redisinfra.NewClient(cmd.Context(), cfg.RedisURL)
				if err != nil {
					return err
				}
				defer client.Close()
				guard = redisRepo.NewIdempotencyGuard(client, cfg.IdempotencyTTL)
			}

			stampKey := cfg.AuditStampKey
			if stampKey == "" {
				// Throwaway key; the simulated trail never leaves this process.
				stampKey = "walletctl-simulate"
			}

			stamper, err := audit.NewStamper([]byte(stampKey))
			if err != nil {
				return err
			}

			store := memory.NewAuditStore()
			recorder := audit.NewRecorder(store, stamper, idGen, clock, log, m, cfg.AuditQueueSize)
			defer recorder.Close()

			evaluator := risk.NewEvaluator(risk.Config{
				ExtremeThreshold: threshold,
				ReceiverDenylist: cfg.RiskReceiverDenylist,
			}, nil)

			approve := usecase.StepUpFunc(func(_ context.Context, _ string, _ domain.Money, level domain.RiskLevel) (bool, error) {
				fmt.Printf("step-up:     auto-approved (%s)\n", level)
				return true, nil
			})

			uc := usecase.NewTransferUseCase(evaluator, guard, approve, recorder, m, log)

			account := domain.NewAccount("sim-account", opening, idGen, clock)

			key := operationKey
			if key == "" {
				key = usecase.NewOperationKey()
			}

			txn, err := uc.ExecuteTransfer(cmd.Context(), usecase.ExecuteTransferInput{
				Account:      account,
				Amount:       amount,
				Receiver:     receiver,
				Description:  description,
				OperationKey: key,
			})
			if err != nil {
				return err
			}

			fmt.Printf("transaction: %s (%s)\n", txn.ID, txn.Status)
			fmt.Printf("balance:     %s\n", account.Balance().Format())

			entries, err := store.List(cmd.Context(), 0)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Printf("audit:       %s %s\n", entry.Action, entry.ID)
			}

			return nil
		},
	}

	simulateCmd.Flags().StringVar(&amountMajor, "amount", "", "amount in major units, e.g. 1250.00")
	simulateCmd.Flags().StringVar(&balanceMajor, "balance", "100000.00", "opening balance in major units")
	simulateCmd.Flags().StringVar(&receiver, "receiver", "sim-receiver", "receiver identifier")
	simulateCmd.Flags().StringVar(&description, "description", "simulated transfer", "transaction description")
	simulateCmd.Flags().StringVar(&operationKey, "key", "", "operation key (generated when empty)")
	simulateCmd.Flags().BoolVar(&useRedis, "redis", false, "use the configured Redis for idempotency admission")
	_ = simulateCmd.MarkFlagRequired("amount")

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer pipeline operations",
	}
	cmd.AddCommand(simulateCmd)

	return cmd
}
