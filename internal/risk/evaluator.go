// Package risk scores proposed transfers before any balance mutation. The
// level is a pure function of amount, receiver and static policy, so the same
// inputs always classify the same way; mutable behavioral context moves only
// the score and the signal metadata.
package risk

import (
	"context"
	"fmt"

	"github.com/kobopay/walletcore/internal/domain"
)

// DefaultExtremeThresholdCents is the conservative cutoff used when no
// threshold is configured.
const DefaultExtremeThresholdCents = 5_000_000

// SignalSource supplies the behavioral context attached to an assessment.
type SignalSource interface {
	Signals(ctx context.Context, receiver string) domain.RiskSignals
}

// StaticSignals is a SignalSource that always returns the same signals. It is
// the default when no behavioral backend is wired.
type StaticSignals struct {
	Value domain.RiskSignals
}

func (s StaticSignals) Signals(context.Context, string) domain.RiskSignals {
	return s.Value
}

var defaultSignals = StaticSignals{Value: domain.RiskSignals{
	BehaviorScore:    80,
	DeviceTrustScore: 75,
	GeoConsistent:    true,
}}

// Config holds the evaluator's policy knobs.
type Config struct {
	// ExtremeThreshold is the amount above which a transfer is critical.
	// Zero means unconfigured and falls back to the conservative default.
	ExtremeThreshold domain.Money
	// ReceiverDenylist names receivers that are always critical.
	ReceiverDenylist []string
}

// Evaluator classifies proposed transfers. It is stateless between calls and
// safe for concurrent use.
type Evaluator struct {
	extremeCents  int64
	highCents     int64
	moderateCents int64
	lowCents      int64
	denylist      map[string]struct{}
	signals       SignalSource
}

// NewEvaluator creates an Evaluator. signals may be nil.
func NewEvaluator(cfg Config, signals SignalSource) *Evaluator {
	extreme := cfg.ExtremeThreshold.Cents()
	if extreme <= 0 {
		extreme = DefaultExtremeThresholdCents
	}

	if signals == nil {
		signals = defaultSignals
	}

	denylist := make(map[string]struct{}, len(cfg.ReceiverDenylist))
	for _, receiver := range cfg.ReceiverDenylist {
		denylist[receiver] = struct{}{}
	}

	return &Evaluator{
		extremeCents:  extreme,
		highCents:     extreme * 6 / 10,
		moderateCents: extreme * 3 / 10,
		lowCents:      extreme * 1 / 10,
		denylist:      denylist,
		signals:       signals,
	}
}

// Assess scores a proposed transfer of amount to receiver.
func (e *Evaluator) Assess(ctx context.Context, amount domain.Money, receiver string) domain.RiskAssessment {
	signals := e.signals.Signals(ctx, receiver)

	if _, denied := e.denylist[receiver]; denied {
		return domain.RiskAssessment{
			Level:   domain.RiskCritical,
			Score:   100,
			Reason:  fmt.Sprintf("receiver %s is on the deny list", receiver),
			Signals: signals,
		}
	}

	cents := amount.Cents()

	switch {
	case cents > e.extremeCents:
		return domain.RiskAssessment{
			Level:   domain.RiskCritical,
			Score:   adjustScore(90, 100, signals),
			Reason:  fmt.Sprintf("amount %s exceeds the extreme value threshold", amount.Format()),
			Signals: signals,
		}
	case cents > e.highCents:
		return domain.RiskAssessment{
			Level:   domain.RiskHigh,
			Score:   adjustScore(70, 89, signals),
			Reason:  "amount approaches the extreme value threshold",
			Signals: signals,
		}
	case cents > e.moderateCents:
		return domain.RiskAssessment{
			Level:   domain.RiskModerate,
			Score:   adjustScore(45, 69, signals),
			Reason:  "amount is unusually large for this account",
			Signals: signals,
		}
	case cents > e.lowCents:
		return domain.RiskAssessment{
			Level:   domain.RiskLow,
			Score:   adjustScore(20, 44, signals),
			Reason:  "amount is above the routine range",
			Signals: signals,
		}
	default:
		// Safe assessments keep a fixed score so routine transfers are
		// comparable over time.
		return domain.RiskAssessment{
			Level:   domain.RiskSafe,
			Score:   5,
			Reason:  "amount is within the routine range",
			Signals: signals,
		}
	}
}

// adjustScore nudges the band's base score with behavioral signals without
// leaving the band.
func adjustScore(base, max int, signals domain.RiskSignals) int {
	score := base

	if signals.VelocityFlag {
		score += 4
	}
	if !signals.GeoConsistent {
		score += 4
	}
	if signals.DeviceTrustScore < 50 {
		score += 2
	}
	if signals.BehaviorScore < 40 {
		score += 2
	}

	if score > max {
		score = max
	}

	return score
}
