package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/port"
	"github.com/aurorapay/risk-engine/pkg/apperrors"
)

// FusionWeights are the fixed weights applied to each sub-evaluation when
// fusing them into the final risk score. They must sum to 1.0.
type FusionWeights struct {
	Model       float64
	Rules       float64
	Behavior    float64
	Reputation  float64
	Velocity    float64
	Geolocation float64
}

// DefaultFusionWeights returns the production weight mix. The model carries
// the most weight; the standalone velocity and geolocation checks also
// contribute through the rule aggregate, which intentionally overweights
// those two signals.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{
		Model:       0.3,
		Rules:       0.2,
		Behavior:    0.2,
		Reputation:  0.1,
		Velocity:    0.1,
		Geolocation: 0.1,
	}
}

const weightSumTolerance = 1e-9

// Validate checks that all weights are non-negative and sum to 1.0.
func (w FusionWeights) Validate() error {
	for _, v := range []float64{w.Model, w.Rules, w.Behavior, w.Reputation, w.Velocity, w.Geolocation} {
		if v < 0 {
			return apperrors.New(apperrors.CodeConfiguration, "fusion weights must be non-negative")
		}
	}
	sum := w.Model + w.Rules + w.Behavior + w.Reputation + w.Velocity + w.Geolocation
	if math.Abs(sum-1.0) > weightSumTolerance {
		return apperrors.Newf(apperrors.CodeConfiguration, "fusion weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// DefaultEvaluationTimeout bounds one full assessment. The engine sits on
// the synchronous payment path, so a slow dependency degrades to the
// fail-safe verdict instead of stalling the payment.
const DefaultEvaluationTimeout = 500 * time.Millisecond

// EngineConfig carries the tunable parts of the decision engine.
type EngineConfig struct {
	Weights             FusionWeights
	SanctionedCountries []string
	EvaluationTimeout   time.Duration
}

// Engine is the risk decision orchestrator. It fans a transaction out to
// six concurrent sub-evaluations, fuses their scores with fixed weights,
// and derives the level, recommendation, confidence and reasons.
type Engine struct {
	profiles    port.ProfileProvider
	modelClient port.ModelClient
	extractor   *FeatureExtractor
	rules       *RuleSet
	velocity    Rule
	geolocation Rule
	behavior    *BehaviorAnalyzer
	reputation  *ReputationAnalyzer
	logger      *slog.Logger
	sanctioned  map[string]struct{}
	weights     FusionWeights
	timeout     time.Duration
}

// NewEngine wires the decision engine. Misconfiguration is fatal here: a
// risk engine must refuse to start rather than serve with a broken weight
// mix or a missing rule.
func NewEngine(
	profiles port.ProfileProvider,
	modelClient port.ModelClient,
	rules *RuleSet,
	behavior *BehaviorAnalyzer,
	reputation *ReputationAnalyzer,
	cfg EngineConfig,
	logger *slog.Logger,
) (*Engine, error) {
	if profiles == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "profile provider is required")
	}
	if modelClient == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "model client is required")
	}
	if rules == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "rule set is required")
	}
	if behavior == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "behavior analyzer is required")
	}
	if reputation == nil {
		return nil, apperrors.New(apperrors.CodeConfiguration, "reputation analyzer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	weights := cfg.Weights
	if weights == (FusionWeights{}) {
		weights = DefaultFusionWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.EvaluationTimeout
	if timeout <= 0 {
		timeout = DefaultEvaluationTimeout
	}

	velocity, ok := rules.Rule(RuleVelocity)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeConfiguration, "rule %q is not registered", RuleVelocity)
	}
	geolocation, ok := rules.Rule(RuleGeolocation)
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeConfiguration, "rule %q is not registered", RuleGeolocation)
	}

	sanctioned := make(map[string]struct{}, len(cfg.SanctionedCountries))
	for _, c := range cfg.SanctionedCountries {
		sanctioned[c] = struct{}{}
	}

	return &Engine{
		profiles:    profiles,
		modelClient: modelClient,
		extractor:   NewFeatureExtractor(),
		rules:       rules,
		velocity:    velocity,
		geolocation: geolocation,
		behavior:    behavior,
		reputation:  reputation,
		weights:     weights,
		timeout:     timeout,
		sanctioned:  sanctioned,
		logger:      logger,
	}, nil
}

// Assess runs the full fan-out/fan-in pipeline for one transaction event.
//
// A malformed event returns a validation error before any scoring starts.
// A failed or timed-out dependency never surfaces as an error: the engine
// degrades to the conservative fail-safe verdict, because failing the
// payment path entirely is worse than routing one payment to review. Only
// cancellation by the caller aborts the assessment with an error.
func (e *Engine) Assess(ctx context.Context, evt model.TransactionEvent) (model.FraudAssessment, error) {
	if err := evt.Validate(); err != nil {
		return model.FraudAssessment{}, apperrors.Wrap(apperrors.CodeValidation, "invalid transaction event", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	profile, err := e.profiles.Profile(ctx, evt.UserID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return model.FraudAssessment{}, fmt.Errorf("fetch risk profile: %w", err)
		}
		e.logger.Warn("profile lookup failed, returning fail-safe assessment",
			"transaction_id", evt.TransactionID, "user_id", evt.UserID, "error", err)
		return failSafe(), nil
	}

	scores, err := e.fanOut(ctx, evt, profile)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return model.FraudAssessment{}, fmt.Errorf("assessment aborted: %w", err)
		}
		e.logger.Warn("sub-evaluation failed, returning fail-safe assessment",
			"transaction_id", evt.TransactionID, "user_id", evt.UserID, "error", err)
		return failSafe(), nil
	}

	return e.decide(evt, scores), nil
}

// subScores carries the six sub-evaluation outputs. Each field is written
// by exactly one goroutine in fanOut; the WaitGroup establishes the
// happens-before edge to the reader.
type subScores struct {
	rules       RuleResult
	velocity    RuleResult
	geolocation RuleResult
	model       float64
	behavior    float64
	reputation  float64
}

const subEvaluations = 6

// fanOut runs the six sub-evaluations concurrently. The first failure
// cancels the remaining ones; the error reported is always the root
// failure, not a cancellation echo from a sibling.
func (e *Engine) fanOut(ctx context.Context, evt model.TransactionEvent, profile model.RiskProfile) (subScores, error) {
	evalCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		scores subScores
	)
	errCh := make(chan error, subEvaluations)

	launch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	launch("model score", func() error {
		features := e.extractor.Extract(evt)
		score, err := e.modelClient.Predict(evalCtx, features)
		if err != nil {
			return err
		}
		scores.model = score
		return nil
	})

	launch("rule aggregate", func() error {
		result, err := e.rules.Evaluate(evalCtx, evt, profile)
		if err != nil {
			return err
		}
		scores.rules = result
		return nil
	})

	launch("behavior analysis", func() error {
		scores.behavior = e.behavior.Analyze(evt, profile)
		return nil
	})

	launch("reputation analysis", func() error {
		score, err := e.reputation.Analyze(evalCtx, evt)
		if err != nil {
			return err
		}
		scores.reputation = score
		return nil
	})

	// The velocity and geolocation rules run a second time as standalone
	// signals with their own fusion weights, independent of the aggregate.
	launch("velocity check", func() error {
		result, err := e.velocity.Evaluate(evalCtx, evt, profile)
		if err != nil {
			return err
		}
		scores.velocity = result
		return nil
	})

	launch("geolocation check", func() error {
		result, err := e.geolocation.Evaluate(evalCtx, evt, profile)
		if err != nil {
			return err
		}
		scores.geolocation = result
		return nil
	})

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return subScores{}, err
	}
	return scores, nil
}
