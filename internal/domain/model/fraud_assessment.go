package model

import (
	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
)

// FraudAssessment is the engine's verdict for a single transaction event.
// It is a pure value: identical inputs always produce an identical
// FraudAssessment, so it deliberately carries no timestamp or identity.
type FraudAssessment struct {
	RiskLevel      valueobject.RiskLevel
	Recommendation valueobject.Recommendation
	Flags          []valueobject.Flag
	Reasons        []string
	RiskScore      float64
	Confidence     float64
}

// HasFlag reports whether the verdict raised the given flag.
func (a FraudAssessment) HasFlag(flag valueobject.Flag) bool {
	return valueobject.ContainsFlag(a.Flags, flag)
}
