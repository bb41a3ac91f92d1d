// Package postgres implements the persistence ports on PostgreSQL.
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
	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
	pkgpostgres "github.com/aurorapay/risk-engine/pkg/postgres"
)

var _ port.AssessmentRepository = (*AssessmentRepository)(nil)

// AssessmentRepository implements port.AssessmentRepository using PostgreSQL.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new PostgreSQL-backed assessment repository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// Save persists a transaction assessment and its flags. Saving the same
// transaction twice updates the verdict columns in place; the unique key on
// (tenant_id, transaction_id) makes duplicate deliveries idempotent.
func (r *AssessmentRepository) Save(ctx context.Context, assessment *model.TransactionAssessment) error {
	var assessedAt *time.Time
	if at := assessment.AssessedAt(); !at.IsZero() {
		assessedAt = &at
	}

	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		// Upsert the assessment. RETURNING resolves the stored row ID so flag
		// rows attach to the surviving row when a conflict keeps the old one.
		query := `
			INSERT INTO risk_assessments (
				id, tenant_id, transaction_id, user_id,
				amount, currency, country, payment_method,
				risk_score, risk_level, recommendation, confidence, reasons,
				assessed_at, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (tenant_id, transaction_id) DO UPDATE SET
				risk_score = EXCLUDED.risk_score,
				risk_level = EXCLUDED.risk_level,
				recommendation = EXCLUDED.recommendation,
				confidence = EXCLUDED.confidence,
				reasons = EXCLUDED.reasons,
				assessed_at = EXCLUDED.assessed_at,
				version = EXCLUDED.version,
				updated_at = EXCLUDED.updated_at
			RETURNING id
		`

		var storedID uuid.UUID
		err := tx.QueryRow(ctx, query,
			assessment.ID(),
			assessment.TenantID(),
			assessment.TransactionID(),
			assessment.UserID(),
			assessment.Amount(),
			assessment.Currency(),
			assessment.Country(),
			assessment.PaymentMethod(),
			assessment.RiskScore(),
			assessment.RiskLevel().String(),
			assessment.Recommendation().String(),
			assessment.Confidence(),
			assessment.Reasons(),
			assessedAt,
			assessment.Version(),
			assessment.CreatedAt(),
			assessment.UpdatedAt(),
		).Scan(&storedID)
		if err != nil {
			return fmt.Errorf("failed to save assessment: %w", err)
		}

		return r.replaceFlags(ctx, tx, storedID, assessment.Flags())
	})
}

// replaceFlags deletes the stored flag rows and writes the current set. It
// takes a Querier so Save can call it on the surrounding transaction.
func (r *AssessmentRepository) replaceFlags(ctx context.Context, q pkgpostgres.Querier, assessmentID uuid.UUID, flags []valueobject.Flag) error {
	_, err := q.Exec(ctx, `DELETE FROM risk_assessment_flags WHERE assessment_id = $1`, assessmentID)
	if err != nil {
		return fmt.Errorf("failed to delete old flags: %w", err)
	}

	for _, flag := range flags {
		_, err = q.Exec(ctx,
			`INSERT INTO risk_assessment_flags (assessment_id, flag) VALUES ($1, $2)`,
			assessmentID, flag.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save flag: %w", err)
		}
	}

	return nil
}

const assessmentColumns = `id, tenant_id, transaction_id, user_id,
		amount, currency, country, payment_method,
		risk_score, risk_level, recommendation, confidence, reasons,
		assessed_at, version, created_at, updated_at`

// FindByID retrieves an assessment by its unique identifier. It returns
// (nil, nil) when no assessment exists.
func (r *AssessmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.TransactionAssessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM risk_assessments
		WHERE tenant_id = $1 AND id = $2
	`

	return r.scanAssessment(ctx, r.pool.QueryRow(ctx, query, tenantID, id))
}

// FindByTransactionID retrieves an assessment by the original transaction ID.
// It returns (nil, nil) when no assessment exists.
func (r *AssessmentRepository) FindByTransactionID(ctx context.Context, tenantID, transactionID uuid.UUID) (*model.TransactionAssessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM risk_assessments
		WHERE tenant_id = $1 AND transaction_id = $2
	`

	return r.scanAssessment(ctx, r.pool.QueryRow(ctx, query, tenantID, transactionID))
}

// FindByUserID retrieves recent assessments for a given user, newest first.
func (r *AssessmentRepository) FindByUserID(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*model.TransactionAssessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM risk_assessments
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, tenantID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*model.TransactionAssessment
	for rows.Next() {
		assessment, err := r.scanAssessmentRow(ctx, rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, assessment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}

	return assessments, nil
}

func (r *AssessmentRepository) scanAssessment(ctx context.Context, row pgx.Row) (*model.TransactionAssessment, error) {
	assessment, err := r.buildAssessment(ctx, row.Scan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return assessment, nil
}

func (r *AssessmentRepository) scanAssessmentRow(ctx context.Context, rows pgx.Rows) (*model.TransactionAssessment, error) {
	return r.buildAssessment(ctx, rows.Scan)
}

// buildAssessment scans one row and reconstructs the aggregate, including
// its flag rows. A pgx.ErrNoRows from scan passes through unwrapped so
// callers can translate it.
func (r *AssessmentRepository) buildAssessment(ctx context.Context, scan func(...any) error) (*model.TransactionAssessment, error) {
	var (
		id                uuid.UUID
		tenantID          uuid.UUID
		transactionID     uuid.UUID
		userID            uuid.UUID
		amount            decimal.Decimal
		currency          string
		country           string
		paymentMethod     string
		riskScore         float64
		riskLevelStr      string
		recommendationStr string
		confidence        float64
		reasons           []string
		assessedAt        *time.Time
		version           int
		createdAt         time.Time
		updatedAt         time.Time
	)

	err := scan(
		&id, &tenantID, &transactionID, &userID,
		&amount, &currency, &country, &paymentMethod,
		&riskScore, &riskLevelStr, &recommendationStr, &confidence, &reasons,
		&assessedAt, &version, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	riskLevel, err := valueobject.RiskLevelFromString(riskLevelStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse risk level: %w", err)
	}

	recommendation, err := valueobject.RecommendationFromString(recommendationStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recommendation: %w", err)
	}

	flags, err := r.loadFlags(ctx, id)
	if err != nil {
		return nil, err
	}

	if reasons == nil {
		reasons = make([]string, 0)
	}

	var assessedAtVal time.Time
	if assessedAt != nil {
		assessedAtVal = *assessedAt
	}

	return model.Reconstruct(
		id, tenantID, transactionID, userID,
		amount, currency, country, paymentMethod,
		riskScore, riskLevel, recommendation, confidence,
		flags, reasons,
		assessedAtVal, version, createdAt, updatedAt,
	), nil
}

func (r *AssessmentRepository) loadFlags(ctx context.Context, assessmentID uuid.UUID) ([]valueobject.Flag, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT flag FROM risk_assessment_flags WHERE assessment_id = $1 ORDER BY id`,
		assessmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flags: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var flag string
		if err := rows.Scan(&flag); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		names = append(names, flag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flags: %w", err)
	}

	return valueobject.FlagsFromStrings(names), nil
}
