package usecase

import (
	"context"
	"fmt"

	"github.com/aurorapay/risk-engine/internal/application/dto"
	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/port"
	"github.com/aurorapay/risk-engine/internal/domain/service"
	"github.com/aurorapay/risk-engine/pkg/apperrors"
)

// AssessTransaction is the use case for scoring a transaction and recording
// the verdict.
type AssessTransaction struct {
	repo      port.AssessmentRepository
	publisher port.EventPublisher
	engine    *service.Engine
}

// NewAssessTransaction creates a new AssessTransaction use case.
func NewAssessTransaction(
	repo port.AssessmentRepository,
	publisher port.EventPublisher,
	engine *service.Engine,
) *AssessTransaction {
	return &AssessTransaction{
		repo:      repo,
		publisher: publisher,
		engine:    engine,
	}
}

// Execute runs the decision engine, records the verdict as an assessment,
// persists it, and publishes the resulting domain events.
func (uc *AssessTransaction) Execute(ctx context.Context, req dto.AssessTransactionRequest) (dto.AssessmentResponse, error) {
	evt := req.Event()

	// 1. Create the assessment aggregate. This validates tenant and event
	// before any scoring work starts.
	assessment, err := model.NewTransactionAssessment(req.TenantID, evt)
	if err != nil {
		return dto.AssessmentResponse{}, apperrors.Wrap(apperrors.CodeValidation, "invalid assessment request", err)
	}

	// 2. Run the decision engine. Dependency failures come back as the
	// fail-safe verdict, not as an error; only validation problems or caller
	// cancellation surface here.
	verdict, err := uc.engine.Assess(ctx, evt)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("assess transaction: %w", err)
	}

	// 3. Apply the verdict. This fixes level, recommendation and flags, and
	// queues the domain events.
	if err := assessment.Complete(verdict); err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("complete assessment: %w", err)
	}

	// 4. Persist the assessment.
	if err := uc.repo.Save(ctx, assessment); err != nil {
		return dto.AssessmentResponse{}, apperrors.Wrap(apperrors.CodeDependency, "save assessment", err)
	}

	// 5. Publish domain events.
	evts := assessment.DomainEvents()
	if len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, evts...); err != nil {
			return dto.AssessmentResponse{}, apperrors.Wrap(apperrors.CodeDependency, "publish assessment events", err)
		}
	}

	return dto.FromModel(assessment), nil
}
