// Package ml provides the fraud model client used for score prediction.
package ml

import (
	"context"
	"log/slog"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/port"
)

// defaultWeights applies to feature vectors in their canonical order:
// normalized amount, time of day, day of week, country, payment method.
var defaultWeights = [model.FeatureCount]float64{0.3, 0.1, 0.1, 0.4, 0.1}

var _ port.ModelClient = (*LinearModel)(nil)

// LinearModel scores transactions with a fixed linear combination of the
// extracted features. It stands in for an external model service and gives
// deterministic, explainable scores until one is wired in.
type LinearModel struct {
	logger  *slog.Logger
	weights [model.FeatureCount]float64
}

// NewLinearModel creates a model client with the default weights.
func NewLinearModel(logger *slog.Logger) *LinearModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinearModel{logger: logger, weights: defaultWeights}
}

// Predict returns the weighted sum of the feature values, clamped to [0, 1].
func (m *LinearModel) Predict(_ context.Context, features model.FeatureVector) (float64, error) {
	values := features.Values()

	var score float64
	for i, w := range m.weights {
		score += w * values[i]
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	m.logger.Debug("model prediction computed",
		slog.Float64("score", score),
	)
	return score, nil
}
