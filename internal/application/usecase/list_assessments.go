package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/aurorapay/risk-engine/internal/application/dto"
	"github.com/aurorapay/risk-engine/internal/domain/port"
	"github.com/aurorapay/risk-engine/pkg/apperrors"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListAssessments is the use case for browsing a user's recent assessments,
// newest first. Used by case review tooling.
type ListAssessments struct {
	repo port.AssessmentRepository
}

// NewListAssessments creates a new ListAssessments use case.
func NewListAssessments(repo port.AssessmentRepository) *ListAssessments {
	return &ListAssessments{repo: repo}
}

// Execute lists assessments for a user with bounded pagination.
func (uc *ListAssessments) Execute(ctx context.Context, req dto.ListAssessmentsRequest) ([]dto.AssessmentResponse, error) {
	if req.TenantID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "tenant ID is required")
	}
	if req.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user ID is required")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	assessments, err := uc.repo.FindByUserID(ctx, req.TenantID, req.UserID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, "list assessments", err)
	}

	responses := make([]dto.AssessmentResponse, len(assessments))
	for i, a := range assessments {
		responses[i] = dto.FromModel(a)
	}
	return responses, nil
}
