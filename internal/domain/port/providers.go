package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aurorapay/risk-engine/internal/domain/model"
)

// ProfileProvider supplies the behavioral baseline for a user. A user with
// no history yet gets a zero-valued profile, not an error.
type ProfileProvider interface {
	Profile(ctx context.Context, userID uuid.UUID) (model.RiskProfile, error)
}

// HistoryProvider supplies a user's recent transactions inside a trailing
// time window, used for velocity checks.
type HistoryProvider interface {
	Recent(ctx context.Context, userID uuid.UUID, window time.Duration) ([]model.TransactionEvent, error)
}

// DeviceReputation scores a device fingerprint. Scores are in [0, 1] where
// higher means worse reputation; an unknown fingerprint scores 0.
type DeviceReputation interface {
	Score(ctx context.Context, fingerprint string) (float64, error)
}

// IPReputation scores an IP address. Scores are in [0, 1] where higher means
// worse reputation; an unknown address scores 0.
type IPReputation interface {
	Score(ctx context.Context, address string) (float64, error)
}

// ModelClient scores a feature vector with the fraud model. Predict must be
// deterministic: the same features always yield the same score in [0, 1].
type ModelClient interface {
	Predict(ctx context.Context, features model.FeatureVector) (float64, error)
}
