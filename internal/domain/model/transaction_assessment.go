package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aurorapay/risk-engine/internal/domain/event"
	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
	"github.com/aurorapay/risk-engine/pkg/events"
)

// TransactionAssessment is the aggregate root for fraud risk assessments.
// It records the verdict the engine produced for one transaction, together
// with enough transaction context for audit and review.
type TransactionAssessment struct {
	assessedAt     time.Time
	createdAt      time.Time
	updatedAt      time.Time
	currency       string
	country        string
	paymentMethod  string
	amount         decimal.Decimal
	riskLevel      valueobject.RiskLevel
	recommendation valueobject.Recommendation
	flags          []valueobject.Flag
	reasons        []string
	domainEvents   events.EventCollector
	riskScore      float64
	confidence     float64
	version        int
	userID         uuid.UUID
	transactionID  uuid.UUID
	tenantID       uuid.UUID
	id             uuid.UUID
}

// NewTransactionAssessment creates a new assessment for an incoming
// transaction event. The assessment starts unscored; call Complete() with
// the engine's verdict.
func NewTransactionAssessment(tenantID uuid.UUID, evt TransactionEvent) (*TransactionAssessment, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if err := evt.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &TransactionAssessment{
		id:             uuid.New(),
		tenantID:       tenantID,
		transactionID:  evt.TransactionID,
		userID:         evt.UserID,
		amount:         evt.Amount,
		currency:       evt.Currency,
		country:        evt.Country,
		paymentMethod:  evt.PaymentMethod,
		riskLevel:      valueobject.RiskLevelLow,
		recommendation: valueobject.Recommendation{},
		flags:          make([]valueobject.Flag, 0),
		reasons:        make([]string, 0),
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Complete applies the engine's verdict to the assessment. This is the core
// domain operation: it fixes the score, level, flags and recommendation, and
// emits the corresponding domain events.
func (a *TransactionAssessment) Complete(verdict FraudAssessment) error {
	if verdict.RiskScore < 0 || verdict.RiskScore > 1 {
		return fmt.Errorf("risk score must be between 0 and 1, got %f", verdict.RiskScore)
	}
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %f", verdict.Confidence)
	}
	if verdict.RiskLevel.IsZero() {
		return fmt.Errorf("risk level is required")
	}
	if verdict.Recommendation.IsZero() {
		return fmt.Errorf("recommendation is required")
	}

	a.riskScore = verdict.RiskScore
	a.riskLevel = verdict.RiskLevel
	a.recommendation = verdict.Recommendation
	a.confidence = verdict.Confidence
	a.flags = valueobject.NormalizeFlags(verdict.Flags)
	a.reasons = append([]string(nil), verdict.Reasons...)
	a.assessedAt = time.Now().UTC()
	a.updatedAt = a.assessedAt
	a.version++

	a.domainEvents.Record(event.NewAssessmentCompleted(
		a.id, a.tenantID, a.transactionID, a.userID,
		a.riskScore, a.riskLevel.String(), a.recommendation.String(),
		a.confidence, valueobject.FlagsToStrings(a.flags), a.assessedAt,
	))

	if a.riskLevel.IsAtLeast(valueobject.RiskLevelHigh) {
		a.domainEvents.Record(event.NewHighRiskDetected(
			a.id, a.tenantID, a.transactionID, a.userID,
			a.riskScore, a.riskLevel.String(), a.recommendation.String(),
			valueobject.FlagsToStrings(a.flags), a.assessedAt,
		))
	}

	return nil
}

// Reconstruct rebuilds a TransactionAssessment from persisted data (no
// validation, no events).
func Reconstruct(
	id, tenantID, transactionID, userID uuid.UUID,
	amount decimal.Decimal,
	currency, country, paymentMethod string,
	riskScore float64,
	riskLevel valueobject.RiskLevel,
	recommendation valueobject.Recommendation,
	confidence float64,
	flags []valueobject.Flag,
	reasons []string,
	assessedAt time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *TransactionAssessment {
	return &TransactionAssessment{
		id:             id,
		tenantID:       tenantID,
		transactionID:  transactionID,
		userID:         userID,
		amount:         amount,
		currency:       currency,
		country:        country,
		paymentMethod:  paymentMethod,
		riskScore:      riskScore,
		riskLevel:      riskLevel,
		recommendation: recommendation,
		confidence:     confidence,
		flags:          flags,
		reasons:        reasons,
		assessedAt:     assessedAt,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Accessors ---

func (a *TransactionAssessment) ID() uuid.UUID                              { return a.id }
func (a *TransactionAssessment) TenantID() uuid.UUID                        { return a.tenantID }
func (a *TransactionAssessment) TransactionID() uuid.UUID                   { return a.transactionID }
func (a *TransactionAssessment) UserID() uuid.UUID                          { return a.userID }
func (a *TransactionAssessment) Amount() decimal.Decimal                    { return a.amount }
func (a *TransactionAssessment) Currency() string                           { return a.currency }
func (a *TransactionAssessment) Country() string                            { return a.country }
func (a *TransactionAssessment) PaymentMethod() string                      { return a.paymentMethod }
func (a *TransactionAssessment) RiskScore() float64                         { return a.riskScore }
func (a *TransactionAssessment) RiskLevel() valueobject.RiskLevel           { return a.riskLevel }
func (a *TransactionAssessment) Recommendation() valueobject.Recommendation { return a.recommendation }
func (a *TransactionAssessment) Confidence() float64                        { return a.confidence }
func (a *TransactionAssessment) Flags() []valueobject.Flag                  { return a.flags }
func (a *TransactionAssessment) Reasons() []string                          { return a.reasons }
func (a *TransactionAssessment) AssessedAt() time.Time                      { return a.assessedAt }
func (a *TransactionAssessment) Version() int                               { return a.version }
func (a *TransactionAssessment) CreatedAt() time.Time                       { return a.createdAt }
func (a *TransactionAssessment) UpdatedAt() time.Time                       { return a.updatedAt }

// DomainEvents returns all accumulated domain events and clears them.
func (a *TransactionAssessment) DomainEvents() []events.DomainEvent {
	return a.domainEvents.ClearEvents()
}
