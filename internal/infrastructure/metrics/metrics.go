// Package metrics registers the Prometheus instruments for the transfer core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Transfer metrics
	TransfersExecuted prometheus.Counter
	TransfersReceived prometheus.Counter
	TransferDuration  prometheus.Histogram
	TransferAmount    prometheus.Histogram
	TransferFailures  *prometheus.CounterVec

	// Risk metrics
	RiskAssessments  *prometheus.CounterVec
	StepUpChallenges *prometheus.CounterVec

	// Audit metrics
	AuditAppends      prometheus.Counter
	AuditAppendErrors prometheus.Counter
	AuditRetries      prometheus.Counter
	AuditDropped      prometheus.Counter
}

// Failure reason labels used with TransferFailures.
const (
	FailureSecurityBlock     = "security_block"
	FailureStepUp            = "step_up"
	FailureDuplicate         = "duplicate"
	FailureInsufficientFunds = "insufficient_funds"
	FailureInvalidAmount     = "invalid_amount"
)

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransfersExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_transfers_executed_total",
			Help: "Total number of transfers executed",
		}),
		TransfersReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_transfers_received_total",
			Help: "Total number of inbound transfers applied",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletcore_transfer_duration_seconds",
			Help:    "Time to orchestrate a transfer",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletcore_transfer_amount_cents",
			Help:    "Distribution of executed transfer amounts in minor units",
			Buckets: prometheus.ExponentialBuckets(100, 10, 7),
		}),
		TransferFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "walletcore_transfer_failures_total",
			Help: "Total number of failed transfers by reason",
		}, []string{"reason"}),
		RiskAssessments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "walletcore_risk_assessments_total",
			Help: "Total number of risk assessments by level",
		}, []string{"level"}),
		StepUpChallenges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "walletcore_step_up_challenges_total",
			Help: "Total number of step-up challenges by outcome",
		}, []string{"outcome"}),
		AuditAppends: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_audit_appends_total",
			Help: "Total number of audit entries appended",
		}),
		AuditAppendErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_audit_append_errors_total",
			Help: "Total number of synchronous audit append failures",
		}),
		AuditRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_audit_retries_total",
			Help: "Total number of background audit append retries",
		}),
		AuditDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "walletcore_audit_dropped_total",
			Help: "Total number of audit entries dropped after retry exhaustion",
		}),
	}
}
