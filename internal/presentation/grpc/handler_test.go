package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aurorapay/risk-engine/internal/application/usecase"
	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/service"
	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
	"github.com/aurorapay/risk-engine/internal/infrastructure/ml"
	"github.com/aurorapay/risk-engine/internal/infrastructure/reputation"
	"github.com/aurorapay/risk-engine/pkg/auth"
	"github.com/aurorapay/risk-engine/pkg/events"
	"github.com/aurorapay/risk-engine/pkg/testutil"
)

// --- Mock implementations ---

type mockAssessmentRepo struct {
	saveErr      error
	findByIDFunc func(ctx context.Context, tenantID, id uuid.UUID) (*model.TransactionAssessment, error)
	findByTxFunc func(ctx context.Context, tenantID, transactionID uuid.UUID) (*model.TransactionAssessment, error)
	listFunc     func(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*model.TransactionAssessment, error)
}

func (m *mockAssessmentRepo) Save(_ context.Context, _ *model.TransactionAssessment) error {
	return m.saveErr
}

func (m *mockAssessmentRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.TransactionAssessment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, tenantID, id)
	}
	return nil, nil
}

func (m *mockAssessmentRepo) FindByTransactionID(ctx context.Context, tenantID, transactionID uuid.UUID) (*model.TransactionAssessment, error) {
	if m.findByTxFunc != nil {
		return m.findByTxFunc(ctx, tenantID, transactionID)
	}
	return nil, nil
}

func (m *mockAssessmentRepo) FindByUserID(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*model.TransactionAssessment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, tenantID, userID, limit, offset)
	}
	return nil, nil
}

type mockEventPublisher struct {
	publishErr error
	published  int
}

func (m *mockEventPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published += len(evts)
	return nil
}

type stubProfiles struct{}

func (stubProfiles) Profile(_ context.Context, userID uuid.UUID) (model.RiskProfile, error) {
	return model.RiskProfile{
		UserID:           userID,
		AverageAmount:    decimal.NewFromInt(100),
		TypicalCountries: []string{"US"},
		UsualHours:       []int{9, 10, 11, 12, 13, 14, 15, 16, 17, 18},
		PreferredMethods: []string{"card"},
		KnownDevices:     []string{testutil.TestDeviceFingerprint},
	}, nil
}

type stubHistory struct{}

func (stubHistory) Recent(context.Context, uuid.UUID, time.Duration) ([]model.TransactionEvent, error) {
	return nil, nil
}

// --- Helpers ---

func contextWithRoles(roles ...string) context.Context {
	claims := &auth.Claims{
		UserID:   uuid.New(),
		TenantID: testutil.TestTenantID,
		Roles:    roles,
	}
	return auth.ContextWithClaims(context.Background(), claims)
}

func contextWithClaims() context.Context {
	return contextWithRoles(auth.RoleAdmin)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func buildHandlerWithDeps(repo *mockAssessmentRepo, publisher *mockEventPublisher) *RiskServiceHandler {
	rules, err := service.NewRuleSet(
		service.NewVelocityRule(stubHistory{}),
		service.NewAmountRule(),
		service.NewGeolocationRule(),
		service.NewTimePatternRule(),
		service.NewDeviceRule(),
	)
	if err != nil {
		panic(err)
	}

	engine, err := service.NewEngine(
		stubProfiles{},
		ml.NewLinearModel(nil),
		rules,
		service.NewBehaviorAnalyzer(),
		service.NewReputationAnalyzer(reputation.NewStaticProvider(nil), reputation.NewStaticProvider(nil)),
		service.EngineConfig{},
		testLogger(),
	)
	if err != nil {
		panic(err)
	}

	return NewRiskServiceHandler(
		usecase.NewAssessTransaction(repo, publisher, engine),
		usecase.NewGetAssessment(repo),
		usecase.NewListAssessments(repo),
		testLogger(),
	)
}

func buildTestHandler() *RiskServiceHandler {
	return buildHandlerWithDeps(&mockAssessmentRepo{}, &mockEventPublisher{})
}

func validAssessRequest() *AssessTransactionRequest {
	return &AssessTransactionRequest{
		TransactionID:     uuid.New().String(),
		UserID:            testutil.TestUserID1.String(),
		Amount:            &MoneyMsg{Amount: "20.00", Currency: "USD"},
		Country:           "US",
		OccurredAt:        "2025-03-12T14:30:00Z",
		DeviceFingerprint: testutil.TestDeviceFingerprint,
		IPAddress:         testutil.TestIPAddress,
		PaymentMethod:     "card",
	}
}

func createTestAssessment() *model.TransactionAssessment {
	a, err := model.NewTransactionAssessment(testutil.TestTenantID, model.TransactionEvent{
		TransactionID:     uuid.New(),
		UserID:            testutil.TestUserID1,
		Amount:            decimal.NewFromInt(15000),
		Currency:          "USD",
		Country:           "RO",
		OccurredAt:        time.Date(2025, 3, 12, 3, 0, 0, 0, time.UTC),
		DeviceFingerprint: "device-unseen",
		IPAddress:         testutil.TestIPAddress,
		PaymentMethod:     "crypto",
	})
	if err != nil {
		panic(err)
	}
	err = a.Complete(model.FraudAssessment{
		RiskScore:      0.75,
		RiskLevel:      valueobject.RiskLevelHigh,
		Recommendation: valueobject.RecommendationReview,
		Confidence:     0.9,
		Flags:          []valueobject.Flag{valueobject.FlagLargeAmount},
		Reasons:        []string{"Transaction amount is unusually large"},
	})
	if err != nil {
		panic(err)
	}
	a.DomainEvents()
	return a
}

// requireGRPCCode asserts that an error is a gRPC status error with the given code.
func requireGRPCCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %T: %v", err, err)
	assert.Equal(t, code, st.Code(), "expected gRPC code %s, got %s: %s", code, st.Code(), st.Message())
}

// --- Tests ---

func TestAssessTransaction(t *testing.T) {
	t.Run("missing claims returns Unauthenticated", func(t *testing.T) {
		h := buildTestHandler()
		_, err := h.AssessTransaction(context.Background(), validAssessRequest())
		requireGRPCCode(t, err, codes.Unauthenticated)
	})

	t.Run("auditor role cannot assess", func(t *testing.T) {
		h := buildTestHandler()
		_, err := h.AssessTransaction(contextWithRoles(auth.RoleAuditor), validAssessRequest())
		requireGRPCCode(t, err, codes.PermissionDenied)
	})

	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		_, err := h.AssessTransaction(contextWithClaims(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("invalid transaction_id returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		req := validAssessRequest()
		req.TransactionID = "bad-uuid"
		_, err := h.AssessTransaction(contextWithClaims(), req)
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "invalid transaction_id")
	})

	t.Run("invalid user_id returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		req := validAssessRequest()
		req.UserID = "bad-uuid"
		_, err := h.AssessTransaction(contextWithClaims(), req)
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "invalid user_id")
	})

	t.Run("invalid amount returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		req := validAssessRequest()
		req.Amount = &MoneyMsg{Amount: "not-a-number", Currency: "USD"}
		_, err := h.AssessTransaction(contextWithClaims(), req)
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "invalid amount")
	})

	t.Run("invalid occurred_at returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		req := validAssessRequest()
		req.OccurredAt = "yesterday"
		_, err := h.AssessTransaction(contextWithClaims(), req)
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "invalid occurred_at")
	})

	t.Run("missing amount fails domain validation", func(t *testing.T) {
		h := buildTestHandler()
		req := validAssessRequest()
		req.Amount = nil
		_, err := h.AssessTransaction(contextWithClaims(), req)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("happy path returns low risk assessment", func(t *testing.T) {
		publisher := &mockEventPublisher{}
		h := buildHandlerWithDeps(&mockAssessmentRepo{}, publisher)

		resp, err := h.AssessTransaction(contextWithClaims(), validAssessRequest())
		require.NoError(t, err)
		require.NotNil(t, resp.Assessment)

		assert.NotEmpty(t, resp.Assessment.ID)
		assert.Equal(t, testutil.TestTenantID.String(), resp.Assessment.TenantID)
		assert.Equal(t, "LOW", resp.Assessment.RiskLevel)
		assert.Equal(t, "APPROVE", resp.Assessment.Recommendation)
		assert.Empty(t, resp.Assessment.Flags)
		assert.Empty(t, resp.Assessment.Reasons)
		assert.NotEmpty(t, resp.Assessment.AssessedAt)
		assert.Equal(t, 1, publisher.published)
	})

	t.Run("save failure returns Unavailable", func(t *testing.T) {
		repo := &mockAssessmentRepo{saveErr: fmt.Errorf("db error")}
		h := buildHandlerWithDeps(repo, &mockEventPublisher{})

		_, err := h.AssessTransaction(contextWithClaims(), validAssessRequest())
		requireGRPCCode(t, err, codes.Unavailable)
		assert.NotContains(t, err.Error(), "db error")
	})
}

func TestGetAssessment(t *testing.T) {
	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		_, err := h.GetAssessment(contextWithClaims(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("missing identifiers returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		_, err := h.GetAssessment(contextWithClaims(), &GetAssessmentRequest{})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("invalid id returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		_, err := h.GetAssessment(contextWithClaims(), &GetAssessmentRequest{ID: "bad-uuid"})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("unknown assessment returns NotFound", func(t *testing.T) {
		h := buildTestHandler()
		_, err := h.GetAssessment(contextWithClaims(), &GetAssessmentRequest{ID: uuid.New().String()})
		requireGRPCCode(t, err, codes.NotFound)
	})

	t.Run("found by id", func(t *testing.T) {
		stored := createTestAssessment()
		repo := &mockAssessmentRepo{
			findByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*model.TransactionAssessment, error) {
				return stored, nil
			},
		}
		h := buildHandlerWithDeps(repo, &mockEventPublisher{})

		resp, err := h.GetAssessment(contextWithClaims(), &GetAssessmentRequest{ID: stored.ID().String()})
		require.NoError(t, err)
		require.NotNil(t, resp.Assessment)
		assert.Equal(t, stored.ID().String(), resp.Assessment.ID)
		assert.Equal(t, "HIGH", resp.Assessment.RiskLevel)
		assert.Equal(t, "REVIEW", resp.Assessment.Recommendation)
		assert.Equal(t, []string{"LARGE_AMOUNT"}, resp.Assessment.Flags)
	})

	t.Run("found by transaction id", func(t *testing.T) {
		stored := createTestAssessment()
		repo := &mockAssessmentRepo{
			findByTxFunc: func(_ context.Context, _, transactionID uuid.UUID) (*model.TransactionAssessment, error) {
				assert.Equal(t, stored.TransactionID(), transactionID)
				return stored, nil
			},
		}
		h := buildHandlerWithDeps(repo, &mockEventPublisher{})

		resp, err := h.GetAssessment(contextWithClaims(), &GetAssessmentRequest{
			TransactionID: stored.TransactionID().String(),
		})
		require.NoError(t, err)
		assert.Equal(t, stored.ID().String(), resp.Assessment.ID)
	})

	t.Run("auditor role can read", func(t *testing.T) {
		stored := createTestAssessment()
		repo := &mockAssessmentRepo{
			findByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*model.TransactionAssessment, error) {
				return stored, nil
			},
		}
		h := buildHandlerWithDeps(repo, &mockEventPublisher{})

		_, err := h.GetAssessment(contextWithRoles(auth.RoleAuditor), &GetAssessmentRequest{ID: stored.ID().String()})
		require.NoError(t, err)
	})
}

func TestListAssessments(t *testing.T) {
	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		_, err := h.ListAssessments(contextWithClaims(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("invalid user_id returns InvalidArgument", func(t *testing.T) {
		h := buildTestHandler()
		_, err := h.ListAssessments(contextWithClaims(), &ListAssessmentsRequest{UserID: "bad-uuid"})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("returns user assessments", func(t *testing.T) {
		first := createTestAssessment()
		second := createTestAssessment()
		repo := &mockAssessmentRepo{
			listFunc: func(_ context.Context, _, userID uuid.UUID, limit, offset int) ([]*model.TransactionAssessment, error) {
				assert.Equal(t, testutil.TestUserID1, userID)
				assert.Equal(t, 20, limit)
				assert.Equal(t, 0, offset)
				return []*model.TransactionAssessment{first, second}, nil
			},
		}
		h := buildHandlerWithDeps(repo, &mockEventPublisher{})

		resp, err := h.ListAssessments(contextWithClaims(), &ListAssessmentsRequest{
			UserID: testutil.TestUserID1.String(),
		})
		require.NoError(t, err)
		require.Len(t, resp.Assessments, 2)
		assert.Equal(t, first.ID().String(), resp.Assessments[0].ID)
		assert.Equal(t, second.ID().String(), resp.Assessments[1].ID)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		h := buildTestHandler()
		resp, err := h.ListAssessments(contextWithClaims(), &ListAssessmentsRequest{
			UserID: uuid.New().String(),
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Assessments)
	})
}
