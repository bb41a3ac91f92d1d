package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
)

// AssessTransactionRequest is the input DTO for the AssessTransaction use case.
type AssessTransactionRequest struct {
	OccurredAt        time.Time       `json:"occurred_at"`
	Amount            decimal.Decimal `json:"amount"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	TransactionID     uuid.UUID       `json:"transaction_id"`
	UserID            uuid.UUID       `json:"user_id"`
	Currency          string          `json:"currency"`
	Country           string          `json:"country"`
	DeviceFingerprint string          `json:"device_fingerprint"`
	IPAddress         string          `json:"ip_address"`
	PaymentMethod     string          `json:"payment_method"`
}

// Event maps the request onto the domain transaction event.
func (r AssessTransactionRequest) Event() model.TransactionEvent {
	return model.TransactionEvent{
		TransactionID:     r.TransactionID,
		UserID:            r.UserID,
		Amount:            r.Amount,
		Currency:          r.Currency,
		Country:           r.Country,
		OccurredAt:        r.OccurredAt,
		DeviceFingerprint: r.DeviceFingerprint,
		IPAddress:         r.IPAddress,
		PaymentMethod:     r.PaymentMethod,
	}
}

// AssessmentResponse is the output DTO returned for an assessment.
type AssessmentResponse struct {
	AssessedAt     time.Time `json:"assessed_at"`
	CreatedAt      time.Time `json:"created_at"`
	Flags          []string  `json:"flags"`
	Reasons        []string  `json:"reasons"`
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	TransactionID  uuid.UUID `json:"transaction_id"`
	UserID         uuid.UUID `json:"user_id"`
	Amount         string    `json:"amount"`
	Currency       string    `json:"currency"`
	Country        string    `json:"country"`
	PaymentMethod  string    `json:"payment_method"`
	RiskLevel      string    `json:"risk_level"`
	Recommendation string    `json:"recommendation"`
	RiskScore      float64   `json:"risk_score"`
	Confidence     float64   `json:"confidence"`
}

// GetAssessmentRequest retrieves one assessment, by assessment ID or, when
// the caller only holds the payment reference, by transaction ID.
type GetAssessmentRequest struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	AssessmentID  uuid.UUID `json:"assessment_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
}

// ListAssessmentsRequest retrieves a user's recent assessments, newest first.
type ListAssessmentsRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	UserID   uuid.UUID `json:"user_id"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// FromModel maps a domain assessment to the response DTO.
func FromModel(a *model.TransactionAssessment) AssessmentResponse {
	return AssessmentResponse{
		ID:             a.ID(),
		TenantID:       a.TenantID(),
		TransactionID:  a.TransactionID(),
		UserID:         a.UserID(),
		Amount:         a.Amount().String(),
		Currency:       a.Currency(),
		Country:        a.Country(),
		PaymentMethod:  a.PaymentMethod(),
		RiskScore:      a.RiskScore(),
		RiskLevel:      a.RiskLevel().String(),
		Recommendation: a.Recommendation().String(),
		Confidence:     a.Confidence(),
		Flags:          valueobject.FlagsToStrings(a.Flags()),
		Reasons:        a.Reasons(),
		AssessedAt:     a.AssessedAt(),
		CreatedAt:      a.CreatedAt(),
	}
}
