package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/aurorapay/risk-engine/pkg/events"
)

const (
	// TypeAssessmentCompleted is emitted when a transaction assessment finishes.
	TypeAssessmentCompleted = "risk.assessment.completed"

	// TypeHighRiskDetected is emitted when an assessment lands at HIGH or
	// CRITICAL, triggering alerts and manual review queues downstream.
	TypeHighRiskDetected = "risk.high_risk.detected"

	aggregateType = "TransactionAssessment"
)

// AssessmentCompletedPayload is the wire body of an AssessmentCompleted event.
type AssessmentCompletedPayload struct {
	AssessmentID   uuid.UUID `json:"assessment_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	TransactionID  uuid.UUID `json:"transaction_id"`
	UserID         uuid.UUID `json:"user_id"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"`
	Flags          []string  `json:"flags"`
	AssessedAt     time.Time `json:"assessed_at"`
}

// AssessmentCompleted is published for every assessment the engine completes.
type AssessmentCompleted struct {
	events.BaseEvent
	Body AssessmentCompletedPayload
}

// NewAssessmentCompleted builds the completion event for an assessment.
func NewAssessmentCompleted(
	assessmentID, tenantID, transactionID, userID uuid.UUID,
	riskScore float64,
	riskLevel, recommendation string,
	confidence float64,
	flags []string,
	assessedAt time.Time,
) AssessmentCompleted {
	p := AssessmentCompletedPayload{
		AssessmentID:   assessmentID,
		TenantID:       tenantID,
		TransactionID:  transactionID,
		UserID:         userID,
		RiskScore:      riskScore,
		RiskLevel:      riskLevel,
		Recommendation: recommendation,
		Confidence:     confidence,
		Flags:          flags,
		AssessedAt:     assessedAt,
	}
	body, _ := json.Marshal(p)
	return AssessmentCompleted{
		BaseEvent: events.NewBaseEvent(TypeAssessmentCompleted, assessmentID, aggregateType, body),
		Body:      p,
	}
}

// HighRiskDetectedPayload is the wire body of a HighRiskDetected event.
type HighRiskDetectedPayload struct {
	AssessmentID   uuid.UUID `json:"assessment_id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	TransactionID  uuid.UUID `json:"transaction_id"`
	UserID         uuid.UUID `json:"user_id"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	Recommendation string    `json:"recommendation"`
	Flags          []string  `json:"flags"`
	DetectedAt     time.Time `json:"detected_at"`
}

// HighRiskDetected is published when an assessment reaches HIGH or CRITICAL.
type HighRiskDetected struct {
	events.BaseEvent
	Body HighRiskDetectedPayload
}

// NewHighRiskDetected builds the high risk alert event for an assessment.
func NewHighRiskDetected(
	assessmentID, tenantID, transactionID, userID uuid.UUID,
	riskScore float64,
	riskLevel, recommendation string,
	flags []string,
	detectedAt time.Time,
) HighRiskDetected {
	p := HighRiskDetectedPayload{
		AssessmentID:   assessmentID,
		TenantID:       tenantID,
		TransactionID:  transactionID,
		UserID:         userID,
		RiskScore:      riskScore,
		RiskLevel:      riskLevel,
		Recommendation: recommendation,
		Flags:          flags,
		DetectedAt:     detectedAt,
	}
	body, _ := json.Marshal(p)
	return HighRiskDetected{
		BaseEvent: events.NewBaseEvent(TypeHighRiskDetected, assessmentID, aggregateType, body),
		Body:      p,
	}
}
