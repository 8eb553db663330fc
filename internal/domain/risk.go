package domain

// RiskLevel is the ordered classification of how likely a transfer is to be
// fraudulent or anomalous.
type RiskLevel int

const (
	RiskSafe RiskLevel = iota
	RiskLow
	RiskModerate
	RiskHigh
	RiskCritical
)

func (l RiskLevel) String() string {
	switch l {
	case RiskSafe:
		return "safe"
	case RiskLow:
		return "low"
	case RiskModerate:
		return "moderate"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// RequiresStepUp reports whether the level gates the transfer behind a
// step-up authentication challenge. Critical transfers are blocked outright
// rather than challenged.
func (l RiskLevel) RequiresStepUp() bool {
	return l == RiskModerate || l == RiskHigh
}

// RiskSignals carries the behavioral context that accompanied an assessment.
// Signals vary with account history; they influence the score, never the
// level.
type RiskSignals struct {
	BehaviorScore    int
	DeviceTrustScore int
	GeoConsistent    bool
	VelocityFlag     bool
}

// RiskAssessment is the evaluator's verdict on a proposed transfer. It is
// consumed synchronously by the orchestrator and not persisted.
type RiskAssessment struct {
	Level   RiskLevel
	Score   int
	Reason  string
	Signals RiskSignals
}
