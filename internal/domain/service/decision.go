package service

import (
	"math"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
)

const (
	// behaviorFlagThreshold is the behavior score above which the engine
	// raises UNUSUAL_BEHAVIOR.
	behaviorFlagThreshold = 0.7

	// reputationFlagThreshold is the reputation score above which the engine
	// raises SUSPICIOUS_DEVICE.
	reputationFlagThreshold = 0.8

	// reviewScoreThreshold forces at least a REVIEW whenever the fused score
	// exceeds it, regardless of the level classification.
	reviewScoreThreshold = 0.7

	minConfidence  = 0.1
	maxFlagPenalty = 0.3
)

// decide fuses the six sub-evaluation scores into the final verdict.
func (e *Engine) decide(evt model.TransactionEvent, s subScores) model.FraudAssessment {
	fused := clamp01(e.weights.Model*s.model +
		e.weights.Rules*s.rules.Score +
		e.weights.Behavior*s.behavior +
		e.weights.Reputation*s.reputation +
		e.weights.Velocity*s.velocity.Score +
		e.weights.Geolocation*s.geolocation.Score)

	flags := append([]valueobject.Flag(nil), s.rules.Flags...)
	if s.behavior > behaviorFlagThreshold {
		flags = append(flags, valueobject.FlagUnusualBehavior)
	}
	if s.reputation > reputationFlagThreshold {
		flags = append(flags, valueobject.FlagSuspiciousDevice)
	}
	if _, hit := e.sanctioned[evt.Country]; hit {
		flags = append(flags, valueobject.FlagSanctionsMatch)
	}
	flags = valueobject.NormalizeFlags(flags)

	level := valueobject.RiskLevelFromScore(fused)

	return model.FraudAssessment{
		RiskScore:      fused,
		RiskLevel:      level,
		Flags:          flags,
		Recommendation: recommend(level, fused, flags),
		Confidence:     confidence(fused, len(flags)),
		Reasons:        describe(flags, fused),
	}
}

// recommend maps the level, score and flags to an action. Sanctions
// exposure declines outright regardless of the fused score.
func recommend(level valueobject.RiskLevel, score float64, flags []valueobject.Flag) valueobject.Recommendation {
	switch {
	case level.Equal(valueobject.RiskLevelCritical) || valueobject.ContainsFlag(flags, valueobject.FlagSanctionsMatch):
		return valueobject.RecommendationDecline
	case level.Equal(valueobject.RiskLevelHigh) || score > reviewScoreThreshold:
		return valueobject.RecommendationReview
	default:
		return valueobject.RecommendationApprove
	}
}

// confidence estimates how trustworthy the fused score is. Extreme scores
// are more trustworthy than mid-range ones; many simultaneous flags erode
// confidence slightly since they indicate noisy or conflicting signals.
func confidence(score float64, flagCount int) float64 {
	c := 0.8 + 2*math.Abs(score-0.5) - math.Min(0.1*float64(flagCount), maxFlagPenalty)
	return clamp(c, minConfidence, 1.0)
}

var reasonTexts = map[valueobject.Flag]string{
	valueobject.FlagVelocityExceeded: "Transaction frequency exceeds normal patterns",
	valueobject.FlagHighVelocity:     "Elevated transaction frequency in the last hour",
	valueobject.FlagRoundAmount:      "Transaction amount matches a round-number pattern",
	valueobject.FlagLargeAmount:      "Transaction amount is unusually large",
	valueobject.FlagUnusualLocation:  "Transaction originates from an unusual location",
	valueobject.FlagUnusualTime:      "Transaction occurred at an unusual time of day",
	valueobject.FlagNewDevice:        "Transaction uses an unrecognized device",
	valueobject.FlagUnusualBehavior:  "Transaction deviates from established user behavior",
	valueobject.FlagSuspiciousDevice: "Device or network reputation indicates elevated risk",
	valueobject.FlagSanctionsMatch:   "Counterparty matched a sanctions screening list",
	valueobject.FlagAnalysisError:    "Unable to complete fraud analysis",
}

// describe renders flags into reviewer-facing sentences. Flags arrive
// normalized, so the reason order is stable across runs.
func describe(flags []valueobject.Flag, score float64) []string {
	reasons := make([]string, 0, len(flags)+1)
	for _, f := range flags {
		if text, ok := reasonTexts[f]; ok {
			reasons = append(reasons, text)
		}
	}
	if score > reviewScoreThreshold {
		reasons = append(reasons, "Model indicates high fraud probability.")
	}
	return reasons
}

// failSafe is the conservative verdict returned when scoring could not
// complete: mid-range score, mandatory review, rock-bottom confidence.
func failSafe() model.FraudAssessment {
	return model.FraudAssessment{
		RiskScore:      0.5,
		RiskLevel:      valueobject.RiskLevelMedium,
		Flags:          []valueobject.Flag{valueobject.FlagAnalysisError},
		Recommendation: valueobject.RecommendationReview,
		Confidence:     minConfidence,
		Reasons:        []string{"Unable to complete fraud analysis"},
	}
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
