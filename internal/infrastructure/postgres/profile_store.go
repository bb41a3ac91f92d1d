package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/port"
)

var _ port.ProfileProvider = (*ProfileStore)(nil)

// ProfileStore implements port.ProfileProvider using PostgreSQL. It also
// records device sightings from the ingest pipeline.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore creates a new PostgreSQL-backed profile store.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Profile loads the behavioral profile for a user. Users without a stored
// profile get the zero profile; the scoring rules treat it as a new user.
func (s *ProfileStore) Profile(ctx context.Context, userID uuid.UUID) (model.RiskProfile, error) {
	query := `
		SELECT average_amount, typical_countries, usual_hours,
			preferred_methods, recent_scores, recent_velocity, updated_at
		FROM user_risk_profiles
		WHERE user_id = $1
	`

	var (
		averageAmount    decimal.Decimal
		typicalCountries []string
		usualHours       []int16
		preferredMethods []string
		recentScores     []float64
		recentVelocity   int
		updatedAt        time.Time
	)

	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&averageAmount, &typicalCountries, &usualHours,
		&preferredMethods, &recentScores, &recentVelocity, &updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.RiskProfile{UserID: userID}, nil
		}
		return model.RiskProfile{}, fmt.Errorf("failed to load risk profile: %w", err)
	}

	hours := make([]int, 0, len(usualHours))
	for _, h := range usualHours {
		hours = append(hours, int(h))
	}

	devices, err := s.knownDevices(ctx, userID)
	if err != nil {
		return model.RiskProfile{}, err
	}

	return model.RiskProfile{
		UserID:           userID,
		AverageAmount:    averageAmount,
		TypicalCountries: typicalCountries,
		UsualHours:       hours,
		PreferredMethods: preferredMethods,
		KnownDevices:     devices,
		RiskScores:       recentScores,
		RecentVelocity:   recentVelocity,
		UpdatedAt:        updatedAt,
	}, nil
}

// RegisterDevice records a device sighting for a user. Repeated sightings
// only advance last_seen.
func (s *ProfileStore) RegisterDevice(ctx context.Context, userID uuid.UUID, fingerprint string, seenAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_devices (user_id, fingerprint, first_seen, last_seen)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id, fingerprint) DO UPDATE SET last_seen = EXCLUDED.last_seen
	`, userID, fingerprint, seenAt)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *ProfileStore) knownDevices(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT fingerprint FROM user_devices WHERE user_id = $1 ORDER BY last_seen DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query known devices: %w", err)
	}
	defer rows.Close()

	devices := make([]string, 0)
	for rows.Next() {
		var fingerprint string
		if err := rows.Scan(&fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, fingerprint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}

	return devices, nil
}
