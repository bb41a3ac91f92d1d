package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aurorapay/risk-engine/internal/application/dto"
	"github.com/aurorapay/risk-engine/internal/application/usecase"
	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
	"github.com/aurorapay/risk-engine/internal/infrastructure/metrics"
	"github.com/aurorapay/risk-engine/pkg/apperrors"
	"github.com/aurorapay/risk-engine/pkg/auth"
)

// requireRole checks that the caller has at least one of the given roles.
func requireRole(ctx context.Context, roles ...string) error {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "authentication required")
	}
	if !claims.HasAnyRole(roles...) {
		return status.Error(codes.PermissionDenied, "insufficient permissions")
	}
	return nil
}

// tenantIDFromContext extracts the tenant ID from JWT claims in the context.
func tenantIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return claims.TenantID, nil
}

// statusFromError translates application errors into gRPC status codes.
// Validation and not-found messages describe the caller's input and are safe
// to return; everything else is masked. Dependency failures map to
// Unavailable so clients know a retry can succeed.
func statusFromError(err error) error {
	switch {
	case apperrors.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case apperrors.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case apperrors.IsDependency(err):
		return status.Error(codes.Unavailable, "a backing service is unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// Compile-time assertion that RiskServiceHandler implements RiskServiceServer.
var _ RiskServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskServiceServer interface.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	assessTransaction *usecase.AssessTransaction
	getAssessment     *usecase.GetAssessment
	listAssessments   *usecase.ListAssessments
	logger            *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler.
func NewRiskServiceHandler(
	assessTransaction *usecase.AssessTransaction,
	getAssessment *usecase.GetAssessment,
	listAssessments *usecase.ListAssessments,
	logger *slog.Logger,
) *RiskServiceHandler {
	return &RiskServiceHandler{
		assessTransaction: assessTransaction,
		getAssessment:     getAssessment,
		listAssessments:   listAssessments,
		logger:            logger,
	}
}

// Proto-aligned request/response message types.

// MoneyMsg represents the proto Money message.
type MoneyMsg struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// AssessTransactionRequest represents the proto AssessTransactionRequest message.
type AssessTransactionRequest struct {
	TransactionID     string    `json:"transaction_id"`
	UserID            string    `json:"user_id"`
	Amount            *MoneyMsg `json:"amount"`
	Country           string    `json:"country"`
	OccurredAt        string    `json:"occurred_at"` // RFC 3339; empty means now
	DeviceFingerprint string    `json:"device_fingerprint"`
	IPAddress         string    `json:"ip_address"`
	PaymentMethod     string    `json:"payment_method"`
}

// RiskAssessmentMsg represents the proto RiskAssessment message.
type RiskAssessmentMsg struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	TransactionID  string    `json:"transaction_id"`
	UserID         string    `json:"user_id"`
	Amount         *MoneyMsg `json:"amount"`
	Country        string    `json:"country"`
	PaymentMethod  string    `json:"payment_method"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"`
	Flags          []string  `json:"flags"`
	Reasons        []string  `json:"reasons"`
	AssessedAt     string    `json:"assessed_at"`
}

// AssessTransactionResponse represents the proto AssessTransactionResponse message.
type AssessTransactionResponse struct {
	Assessment *RiskAssessmentMsg `json:"assessment"`
}

// GetAssessmentRequest represents the proto GetAssessmentRequest message.
// Either the assessment ID or the transaction ID identifies the assessment.
type GetAssessmentRequest struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
}

// GetAssessmentResponse represents the proto GetAssessmentResponse message.
type GetAssessmentResponse struct {
	Assessment *RiskAssessmentMsg `json:"assessment"`
}

// ListAssessmentsRequest represents the proto ListAssessmentsRequest message.
type ListAssessmentsRequest struct {
	UserID string `json:"user_id"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

// ListAssessmentsResponse represents the proto ListAssessmentsResponse message.
type ListAssessmentsResponse struct {
	Assessments []*RiskAssessmentMsg `json:"assessments"`
}

func assessmentMsg(result dto.AssessmentResponse) *RiskAssessmentMsg {
	var assessedAt string
	if !result.AssessedAt.IsZero() {
		assessedAt = result.AssessedAt.UTC().Format(time.RFC3339Nano)
	}
	return &RiskAssessmentMsg{
		ID:             result.ID.String(),
		TenantID:       result.TenantID.String(),
		TransactionID:  result.TransactionID.String(),
		UserID:         result.UserID.String(),
		Amount:         &MoneyMsg{Amount: result.Amount, Currency: result.Currency},
		Country:        result.Country,
		PaymentMethod:  result.PaymentMethod,
		RiskScore:      result.RiskScore,
		RiskLevel:      result.RiskLevel,
		Recommendation: result.Recommendation,
		Confidence:     result.Confidence,
		Flags:          result.Flags,
		Reasons:        result.Reasons,
		AssessedAt:     assessedAt,
	}
}

// AssessTransaction handles a transaction assessment request.
func (h *RiskServiceHandler) AssessTransaction(ctx context.Context, req *AssessTransactionRequest) (*AssessTransactionResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	tenantID, err := tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid transaction_id: %v", err)
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid user_id: %v", err)
	}

	var amount decimal.Decimal
	var currency string
	if req.Amount != nil {
		amount, err = decimal.NewFromString(req.Amount.Amount)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid amount: %v", err)
		}
		currency = req.Amount.Currency
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid occurred_at: %v", err)
		}
	}

	h.logger.Info("assessing transaction",
		slog.String("tenant_id", tenantID.String()),
		slog.String("transaction_id", transactionID.String()),
	)

	timer := prometheus.NewTimer(metrics.AssessmentDuration)
	result, err := h.assessTransaction.Execute(ctx, dto.AssessTransactionRequest{
		TenantID:          tenantID,
		TransactionID:     transactionID,
		UserID:            userID,
		Amount:            amount,
		Currency:          currency,
		Country:           req.Country,
		OccurredAt:        occurredAt,
		DeviceFingerprint: req.DeviceFingerprint,
		IPAddress:         req.IPAddress,
		PaymentMethod:     req.PaymentMethod,
	})
	timer.ObserveDuration()
	if err != nil {
		h.logger.Error("failed to assess transaction",
			slog.String("transaction_id", transactionID.String()),
			slog.String("code", string(apperrors.CodeOf(err))),
			slog.String("error", err.Error()),
		)
		return nil, statusFromError(err)
	}

	metrics.AssessmentsTotal.WithLabelValues(result.RiskLevel, result.Recommendation).Inc()
	for _, flag := range result.Flags {
		if flag == valueobject.FlagAnalysisError.String() {
			metrics.FailSafeTotal.Inc()
			break
		}
	}

	return &AssessTransactionResponse{Assessment: assessmentMsg(result)}, nil
}

// GetAssessment handles a get assessment request.
func (h *RiskServiceHandler) GetAssessment(ctx context.Context, req *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAuditor, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	tenantID, err := tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := dto.GetAssessmentRequest{TenantID: tenantID}
	switch {
	case req.ID != "":
		query.AssessmentID, err = uuid.Parse(req.ID)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
		}
	case req.TransactionID != "":
		query.TransactionID, err = uuid.Parse(req.TransactionID)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid transaction_id: %v", err)
		}
	default:
		return nil, status.Error(codes.InvalidArgument, "id or transaction_id is required")
	}

	result, err := h.getAssessment.Execute(ctx, query)
	if err != nil {
		return nil, statusFromError(err)
	}

	return &GetAssessmentResponse{Assessment: assessmentMsg(result)}, nil
}

// ListAssessments handles a list assessments request.
func (h *RiskServiceHandler) ListAssessments(ctx context.Context, req *ListAssessmentsRequest) (*ListAssessmentsResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleOperator, auth.RoleAuditor, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	tenantID, err := tenantIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid user_id: %v", err)
	}

	results, err := h.listAssessments.Execute(ctx, dto.ListAssessmentsRequest{
		TenantID: tenantID,
		UserID:   userID,
		Limit:    int(req.Limit),
		Offset:   int(req.Offset),
	})
	if err != nil {
		return nil, statusFromError(err)
	}

	assessments := make([]*RiskAssessmentMsg, 0, len(results))
	for _, result := range results {
		assessments = append(assessments, assessmentMsg(result))
	}

	return &ListAssessmentsResponse{Assessments: assessments}, nil
}
