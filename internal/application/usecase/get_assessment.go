package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/aurorapay/risk-engine/internal/application/dto"
	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/port"
	"github.com/aurorapay/risk-engine/pkg/apperrors"
)

// GetAssessment is the use case for retrieving an existing assessment.
type GetAssessment struct {
	repo port.AssessmentRepository
}

// NewGetAssessment creates a new GetAssessment use case.
func NewGetAssessment(repo port.AssessmentRepository) *GetAssessment {
	return &GetAssessment{repo: repo}
}

// Execute retrieves an assessment by its own ID or, when only the payment
// reference is known, by transaction ID.
func (uc *GetAssessment) Execute(ctx context.Context, req dto.GetAssessmentRequest) (dto.AssessmentResponse, error) {
	if req.TenantID == uuid.Nil {
		return dto.AssessmentResponse{}, apperrors.New(apperrors.CodeValidation, "tenant ID is required")
	}

	var (
		assessment *model.TransactionAssessment
		err        error
	)
	switch {
	case req.AssessmentID != uuid.Nil:
		assessment, err = uc.repo.FindByID(ctx, req.TenantID, req.AssessmentID)
	case req.TransactionID != uuid.Nil:
		assessment, err = uc.repo.FindByTransactionID(ctx, req.TenantID, req.TransactionID)
	default:
		return dto.AssessmentResponse{}, apperrors.New(apperrors.CodeValidation, "assessment ID or transaction ID is required")
	}
	if err != nil {
		return dto.AssessmentResponse{}, apperrors.Wrap(apperrors.CodeDependency, "find assessment", err)
	}
	if assessment == nil {
		return dto.AssessmentResponse{}, apperrors.New(apperrors.CodeNotFound, "assessment not found")
	}

	return dto.FromModel(assessment), nil
}
