package model

// FeatureCount is the dimensionality of the model input.
const FeatureCount = 5

// FeatureVector holds the numeric features fed to the scoring model. Field
// order here is documentation only; Values defines the canonical ordering
// the model weights are trained against.
type FeatureVector struct {
	NormalizedAmount  float64
	TimeOfDayRisk     float64
	DayOfWeekRisk     float64
	CountryRisk       float64
	PaymentMethodRisk float64
}

// Values returns the features in canonical model input order.
func (v FeatureVector) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{
		v.NormalizedAmount,
		v.TimeOfDayRisk,
		v.DayOfWeekRisk,
		v.CountryRisk,
		v.PaymentMethodRisk,
	}
}
