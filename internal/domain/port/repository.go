package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/pkg/events"
)

// AssessmentRepository defines the persistence port for transaction assessments.
type AssessmentRepository interface {
	// Save persists a new or updated transaction assessment.
	Save(ctx context.Context, assessment *model.TransactionAssessment) error

	// FindByID retrieves an assessment by its unique identifier.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.TransactionAssessment, error)

	// FindByTransactionID retrieves an assessment by the original transaction ID.
	FindByTransactionID(ctx context.Context, tenantID, transactionID uuid.UUID) (*model.TransactionAssessment, error)

	// FindByUserID retrieves recent assessments for a given user, newest first.
	FindByUserID(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*model.TransactionAssessment, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}
