package service

import (
	"github.com/shopspring/decimal"

	"github.com/aurorapay/risk-engine/internal/domain/model"
)

var behaviorDeviationFactor = decimal.NewFromInt(2)

// BehaviorAnalyzer scores how far a transaction deviates from the user's
// established profile. The analysis is pure: all inputs arrive in the
// profile snapshot.
type BehaviorAnalyzer struct{}

// NewBehaviorAnalyzer creates a new BehaviorAnalyzer instance.
func NewBehaviorAnalyzer() *BehaviorAnalyzer {
	return &BehaviorAnalyzer{}
}

// Analyze returns a deviation score in [0, 1]. Three independent checks
// contribute: amount deviation from the historical average, activity outside
// usual hours, and an unfamiliar payment method.
func (a *BehaviorAnalyzer) Analyze(evt model.TransactionEvent, profile model.RiskProfile) float64 {
	var score float64

	// Amount more than 2x away from the user's average. Skipped until the
	// profile has a positive average to compare against.
	if profile.AverageAmount.IsPositive() {
		deviation := evt.Amount.Sub(profile.AverageAmount).Abs().Div(profile.AverageAmount)
		if deviation.GreaterThan(behaviorDeviationFactor) {
			score += 0.3
		}
	}

	if !profile.HasUsualHour(evt.Hour()) {
		score += 0.2
	}

	if !profile.PrefersMethod(evt.PaymentMethod) {
		score += 0.2
	}

	return clamp01(score)
}
