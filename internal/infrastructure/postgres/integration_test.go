//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
	pkgpostgres "github.com/aurorapay/risk-engine/pkg/postgres"
	"github.com/aurorapay/risk-engine/pkg/testutil"
)

func setupDB(t *testing.T) (*testutil.PostgresContainer, context.Context) {
	t.Helper()
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pc.Cleanup(t) })
	pc.RunMigrations(t, "migrations")
	return pc, ctx
}

func completedAssessment(t *testing.T, userID uuid.UUID) *model.TransactionAssessment {
	t.Helper()

	evt := model.TransactionEvent{
		TransactionID:     uuid.New(),
		UserID:            userID,
		Amount:            decimal.NewFromInt(250),
		Currency:          "USD",
		Country:           "US",
		OccurredAt:        time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC),
		DeviceFingerprint: testutil.TestDeviceFingerprint,
		IPAddress:         testutil.TestIPAddress,
		PaymentMethod:     "card",
	}

	assessment, err := model.NewTransactionAssessment(testutil.TestTenantID, evt)
	require.NoError(t, err)

	err = assessment.Complete(model.FraudAssessment{
		RiskScore:      0.75,
		RiskLevel:      valueobject.RiskLevelHigh,
		Recommendation: valueobject.RecommendationReview,
		Confidence:     0.9,
		Flags:          []valueobject.Flag{valueobject.FlagLargeAmount, valueobject.FlagNewDevice},
		Reasons:        []string{"Transaction amount is unusually large"},
	})
	require.NoError(t, err)
	assessment.DomainEvents() // drain, persistence does not consume them

	return assessment
}

func TestAssessmentRepository_SaveAndFind(t *testing.T) {
	pc, ctx := setupDB(t)
	repo := NewAssessmentRepository(pc.Pool)

	assessment := completedAssessment(t, testutil.TestUserID1)
	require.NoError(t, repo.Save(ctx, assessment))

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, testutil.TestTenantID, assessment.ID())
		require.NoError(t, err)
		require.NotNil(t, found)

		assert.Equal(t, assessment.ID(), found.ID())
		assert.Equal(t, assessment.TransactionID(), found.TransactionID())
		assert.Equal(t, assessment.UserID(), found.UserID())
		assert.True(t, assessment.Amount().Equal(found.Amount()))
		assert.Equal(t, "USD", found.Currency())
		assert.Equal(t, "US", found.Country())
		assert.Equal(t, "card", found.PaymentMethod())
		assert.InDelta(t, 0.75, found.RiskScore(), 1e-9)
		assert.Equal(t, valueobject.RiskLevelHigh, found.RiskLevel())
		assert.Equal(t, valueobject.RecommendationReview, found.Recommendation())
		assert.InDelta(t, 0.9, found.Confidence(), 1e-9)
		assert.Equal(t, assessment.Flags(), found.Flags())
		assert.Equal(t, assessment.Reasons(), found.Reasons())
		assert.Equal(t, assessment.Version(), found.Version())
		assert.WithinDuration(t, assessment.AssessedAt(), found.AssessedAt(), time.Second)
		assert.WithinDuration(t, assessment.CreatedAt(), found.CreatedAt(), time.Second)
	})

	t.Run("find by transaction id", func(t *testing.T) {
		found, err := repo.FindByTransactionID(ctx, testutil.TestTenantID, assessment.TransactionID())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, assessment.ID(), found.ID())
	})

	t.Run("missing assessment returns nil", func(t *testing.T) {
		found, err := repo.FindByID(ctx, testutil.TestTenantID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("wrong tenant returns nil", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New(), assessment.ID())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestAssessmentRepository_SaveIsIdempotent(t *testing.T) {
	pc, ctx := setupDB(t)
	repo := NewAssessmentRepository(pc.Pool)

	assessment := completedAssessment(t, testutil.TestUserID1)
	require.NoError(t, repo.Save(ctx, assessment))
	require.NoError(t, repo.Save(ctx, assessment))

	found, err := repo.FindByID(ctx, testutil.TestTenantID, assessment.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	// Flags are replaced on re-save, not duplicated.
	assert.Len(t, found.Flags(), 2)
}

func TestAssessmentRepository_FindByUserID(t *testing.T) {
	pc, ctx := setupDB(t)
	repo := NewAssessmentRepository(pc.Pool)

	var saved []*model.TransactionAssessment
	for i := 0; i < 3; i++ {
		a := completedAssessment(t, testutil.TestUserID1)
		require.NoError(t, repo.Save(ctx, a))
		saved = append(saved, a)
		time.Sleep(10 * time.Millisecond) // distinct created_at for ordering
	}
	other := completedAssessment(t, testutil.TestUserID2)
	require.NoError(t, repo.Save(ctx, other))

	t.Run("newest first", func(t *testing.T) {
		found, err := repo.FindByUserID(ctx, testutil.TestTenantID, testutil.TestUserID1, 10, 0)
		require.NoError(t, err)
		require.Len(t, found, 3)
		assert.Equal(t, saved[2].ID(), found[0].ID())
		assert.Equal(t, saved[0].ID(), found[2].ID())
	})

	t.Run("pagination", func(t *testing.T) {
		found, err := repo.FindByUserID(ctx, testutil.TestTenantID, testutil.TestUserID1, 2, 2)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, saved[0].ID(), found[0].ID())
	})

	t.Run("unknown user is empty", func(t *testing.T) {
		found, err := repo.FindByUserID(ctx, testutil.TestTenantID, uuid.New(), 10, 0)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestProfileStore_Profile(t *testing.T) {
	pc, ctx := setupDB(t)
	store := NewProfileStore(pc.Pool)

	t.Run("missing profile yields zero profile", func(t *testing.T) {
		profile, err := store.Profile(ctx, testutil.TestUserID2)
		require.NoError(t, err)
		assert.Equal(t, testutil.TestUserID2, profile.UserID)
		assert.Empty(t, profile.TypicalCountries)
		assert.Empty(t, profile.KnownDevices)
		assert.True(t, profile.AverageAmount.IsZero())
	})

	t.Run("loads stored profile with devices", func(t *testing.T) {
		_, err := pc.Pool.Exec(ctx, `
			INSERT INTO user_risk_profiles
				(user_id, average_amount, typical_countries, usual_hours, preferred_methods, recent_scores, recent_velocity)
			VALUES ($1, 125.50, '{US,CA}', '{9,12,18}', '{card}', '{0.1,0.2}', 4)
		`, testutil.TestUserID1)
		require.NoError(t, err)

		require.NoError(t, store.RegisterDevice(ctx, testutil.TestUserID1, testutil.TestDeviceFingerprint, time.Now()))

		profile, err := store.Profile(ctx, testutil.TestUserID1)
		require.NoError(t, err)
		assert.True(t, profile.AverageAmount.Equal(decimal.RequireFromString("125.50")))
		assert.Equal(t, []string{"US", "CA"}, profile.TypicalCountries)
		assert.Equal(t, []int{9, 12, 18}, profile.UsualHours)
		assert.Equal(t, []string{"card"}, profile.PreferredMethods)
		assert.Equal(t, []float64{0.1, 0.2}, profile.RiskScores)
		assert.Equal(t, 4, profile.RecentVelocity)
		assert.Equal(t, []string{testutil.TestDeviceFingerprint}, profile.KnownDevices)
	})
}

func TestProfileStore_RegisterDevice(t *testing.T) {
	pc, ctx := setupDB(t)
	store := NewProfileStore(pc.Pool)

	firstSeen := time.Now().Add(-time.Hour)
	require.NoError(t, store.RegisterDevice(ctx, testutil.TestUserID1, "device-a", firstSeen))
	require.NoError(t, store.RegisterDevice(ctx, testutil.TestUserID1, "device-a", time.Now()))
	require.NoError(t, store.RegisterDevice(ctx, testutil.TestUserID1, "device-b", time.Now()))

	var count int
	err := pc.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_devices WHERE user_id = $1`, testutil.TestUserID1,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var first, last time.Time
	err = pc.Pool.QueryRow(ctx,
		`SELECT first_seen, last_seen FROM user_devices WHERE user_id = $1 AND fingerprint = 'device-a'`,
		testutil.TestUserID1,
	).Scan(&first, &last)
	require.NoError(t, err)
	assert.True(t, last.After(first))
}

// TestMigrations_RoundTrip applies every migration, rolls them all back, and
// applies them again. A down file that drifts from its up file fails here
// rather than during a production rollback.
func TestMigrations_RoundTrip(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pc.Cleanup(t) })

	const source = "file://migrations"

	require.NoError(t, pkgpostgres.RunMigrations(pc.DSN, source))
	require.NoError(t, pkgpostgres.RunMigrationsDown(pc.DSN, source))

	var remaining int
	err := pc.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name <> 'schema_migrations'
	`).Scan(&remaining)
	require.NoError(t, err)
	assert.Zero(t, remaining, "down migrations left tables behind")

	require.NoError(t, pkgpostgres.RunMigrations(pc.DSN, source))

	var recreated int
	err = pc.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name IN
			('risk_assessments', 'risk_assessment_flags', 'user_risk_profiles', 'user_devices')
	`).Scan(&recreated)
	require.NoError(t, err)
	assert.Equal(t, 4, recreated)
}
