package service

import (
	"github.com/aurorapay/risk-engine/internal/domain/model"
)

// Country tiers used by both feature extraction and rule evaluation. The
// high tier matches comprehensive sanctions programs; the medium tier covers
// jurisdictions with elevated fraud rates.
var highRiskCountries = map[string]bool{
	"KP": true, "IR": true, "SY": true, "CU": true,
}

var mediumRiskCountries = map[string]bool{
	"NG": true, "PK": true, "VE": true, "MM": true, "LA": true,
}

// Payment method base risk. Methods absent from the map score 0.5.
var methodRisk = map[string]float64{
	"crypto":           0.7,
	"cash":             0.8,
	"wire":             0.4,
	"card":             0.2,
	"instant_transfer": 0.1,
}

const defaultMethodRisk = 0.5

// isQuietHour reports whether the hour falls in the 02:00-06:59 window where
// legitimate activity is rare.
func isQuietHour(hour int) bool {
	return hour >= 2 && hour <= 6
}

// FeatureExtractor converts a transaction event into the numeric feature
// vector the scoring model consumes. Extraction is pure: no lookups, no
// clock reads.
type FeatureExtractor struct{}

// NewFeatureExtractor creates a new FeatureExtractor instance.
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{}
}

// Extract builds the feature vector for an event.
func (e *FeatureExtractor) Extract(evt model.TransactionEvent) model.FeatureVector {
	v := model.FeatureVector{}

	// Amount scaled so that a 1000-unit transaction maps to 1.0. The model
	// weights expect this scale; no clamping here.
	amount, _ := evt.Amount.Div(thousand).Float64()
	v.NormalizedAmount = amount

	if isQuietHour(evt.Hour()) {
		v.TimeOfDayRisk = 0.8
	} else {
		v.TimeOfDayRisk = 0.2
	}

	if evt.IsWeekend() {
		v.DayOfWeekRisk = 0.3
	} else {
		v.DayOfWeekRisk = 0.1
	}

	switch {
	case highRiskCountries[evt.Country]:
		v.CountryRisk = 1.0
	case mediumRiskCountries[evt.Country]:
		v.CountryRisk = 0.6
	default:
		v.CountryRisk = 0.1
	}

	if risk, ok := methodRisk[evt.PaymentMethod]; ok {
		v.PaymentMethodRisk = risk
	} else {
		v.PaymentMethodRisk = defaultMethodRisk
	}

	return v
}
