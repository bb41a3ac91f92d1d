package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/port"
	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
	"github.com/aurorapay/risk-engine/pkg/apperrors"
)

// Amount thresholds shared by feature extraction and the amount rule.
var (
	thousand             = decimal.NewFromInt(1000)
	fiveHundred          = decimal.NewFromInt(500)
	largeAmountThreshold = decimal.NewFromInt(10000)
)

// Registered rule names. The engine requires the velocity and geolocation
// rules to be present because it re-runs them as standalone signals.
const (
	RuleVelocity    = "velocity"
	RuleAmount      = "amount"
	RuleGeolocation = "geolocation"
	RuleTimePattern = "time_pattern"
	RuleDevice      = "device"
)

// RuleResult is the outcome of evaluating one rule or a whole rule set:
// a score in [0, 1] plus the flags that justify it.
type RuleResult struct {
	Flags []valueobject.Flag
	Score float64
}

// Rule is a single fraud detection heuristic. Evaluate must be safe for
// concurrent use; rules that need I/O take it through their injected ports.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, evt model.TransactionEvent, profile model.RiskProfile) (RuleResult, error)
}

// VelocityRule scores transaction frequency over a trailing one hour window.
type VelocityRule struct {
	history port.HistoryProvider
}

// NewVelocityRule creates a velocity rule backed by the given history provider.
func NewVelocityRule(history port.HistoryProvider) *VelocityRule {
	return &VelocityRule{history: history}
}

func (r *VelocityRule) Name() string { return RuleVelocity }

func (r *VelocityRule) Evaluate(ctx context.Context, evt model.TransactionEvent, _ model.RiskProfile) (RuleResult, error) {
	recent, err := r.history.Recent(ctx, evt.UserID, time.Hour)
	if err != nil {
		return RuleResult{}, fmt.Errorf("fetch recent transactions: %w", err)
	}

	count := len(recent)
	switch {
	case count > 10:
		return RuleResult{Score: 0.8, Flags: []valueobject.Flag{valueobject.FlagVelocityExceeded}}, nil
	case count > 5:
		return RuleResult{Score: 0.5, Flags: []valueobject.Flag{valueobject.FlagHighVelocity}}, nil
	default:
		return RuleResult{Score: 0, Flags: nil}, nil
	}
}

// AmountRule scores suspicious amount shapes: round numbers favored by
// structuring, and unusually large transactions. Both conditions can hold
// at once; the contributions add.
type AmountRule struct{}

// NewAmountRule creates a new AmountRule instance.
func NewAmountRule() *AmountRule {
	return &AmountRule{}
}

func (r *AmountRule) Name() string { return RuleAmount }

func (r *AmountRule) Evaluate(_ context.Context, evt model.TransactionEvent, _ model.RiskProfile) (RuleResult, error) {
	var (
		score float64
		flags []valueobject.Flag
	)

	if isRoundAmount(evt.Amount) {
		score += 0.3
		flags = append(flags, valueobject.FlagRoundAmount)
	}
	if evt.Amount.GreaterThan(largeAmountThreshold) {
		score += 0.4
		flags = append(flags, valueobject.FlagLargeAmount)
	}

	return RuleResult{Score: clamp01(score), Flags: flags}, nil
}

func isRoundAmount(amount decimal.Decimal) bool {
	return amount.Mod(thousand).IsZero() || amount.Mod(fiveHundred).IsZero()
}

// GeolocationRule scores transactions originating outside the user's
// typical countries. A user with no established countries yet trips this
// rule on every transaction until their profile fills in.
type GeolocationRule struct{}

// NewGeolocationRule creates a new GeolocationRule instance.
func NewGeolocationRule() *GeolocationRule {
	return &GeolocationRule{}
}

func (r *GeolocationRule) Name() string { return RuleGeolocation }

func (r *GeolocationRule) Evaluate(_ context.Context, evt model.TransactionEvent, profile model.RiskProfile) (RuleResult, error) {
	if profile.HasTypicalCountry(evt.Country) {
		return RuleResult{}, nil
	}
	return RuleResult{Score: 0.6, Flags: []valueobject.Flag{valueobject.FlagUnusualLocation}}, nil
}

// TimePatternRule scores transactions in the quiet overnight window.
type TimePatternRule struct{}

// NewTimePatternRule creates a new TimePatternRule instance.
func NewTimePatternRule() *TimePatternRule {
	return &TimePatternRule{}
}

func (r *TimePatternRule) Name() string { return RuleTimePattern }

func (r *TimePatternRule) Evaluate(_ context.Context, evt model.TransactionEvent, _ model.RiskProfile) (RuleResult, error) {
	if isQuietHour(evt.Hour()) {
		return RuleResult{Score: 0.4, Flags: []valueobject.Flag{valueobject.FlagUnusualTime}}, nil
	}
	return RuleResult{}, nil
}

// DeviceRule scores transactions from device fingerprints not yet seen on
// the user's account.
type DeviceRule struct{}

// NewDeviceRule creates a new DeviceRule instance.
func NewDeviceRule() *DeviceRule {
	return &DeviceRule{}
}

func (r *DeviceRule) Name() string { return RuleDevice }

func (r *DeviceRule) Evaluate(_ context.Context, evt model.TransactionEvent, profile model.RiskProfile) (RuleResult, error) {
	if profile.KnowsDevice(evt.DeviceFingerprint) {
		return RuleResult{}, nil
	}
	return RuleResult{Score: 0.3, Flags: []valueobject.Flag{valueobject.FlagNewDevice}}, nil
}

// RuleSet runs a fixed registry of rules concurrently and aggregates their
// outcomes into a single result: the arithmetic mean of all rule scores and
// the union of all raised flags. Any rule failure fails the whole
// evaluation; a partial aggregate would silently understate risk.
type RuleSet struct {
	rules []Rule
	index map[string]Rule
}

// NewRuleSet builds a rule set from the given rules. The registry must be
// non-empty and rule names must be unique.
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, apperrors.New(apperrors.CodeConfiguration, "rule registry is empty")
	}

	index := make(map[string]Rule, len(rules))
	for _, r := range rules {
		name := r.Name()
		if name == "" {
			return nil, apperrors.New(apperrors.CodeConfiguration, "rule has an empty name")
		}
		if _, dup := index[name]; dup {
			return nil, apperrors.Newf(apperrors.CodeConfiguration, "duplicate rule name %q", name)
		}
		index[name] = r
	}

	return &RuleSet{rules: rules, index: index}, nil
}

// Rule returns the registered rule with the given name.
func (s *RuleSet) Rule(name string) (Rule, bool) {
	r, ok := s.index[name]
	return r, ok
}

// Len returns the number of registered rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

type ruleOutcome struct {
	err    error
	name   string
	result RuleResult
}

// Evaluate runs every registered rule concurrently and aggregates the
// outcomes. The returned flags are deduplicated and sorted so that the
// aggregate is independent of rule completion order.
func (s *RuleSet) Evaluate(ctx context.Context, evt model.TransactionEvent, profile model.RiskProfile) (RuleResult, error) {
	outcomes := make(chan ruleOutcome, len(s.rules))

	for _, r := range s.rules {
		go func(r Rule) {
			result, err := r.Evaluate(ctx, evt, profile)
			outcomes <- ruleOutcome{name: r.Name(), result: result, err: err}
		}(r)
	}

	var (
		sum   float64
		flags []valueobject.Flag
	)
	var firstErr error
	for range s.rules {
		o := <-outcomes
		if o.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("rule %s: %w", o.name, o.err)
			}
			continue
		}
		sum += o.result.Score
		flags = append(flags, o.result.Flags...)
	}
	if firstErr != nil {
		return RuleResult{}, firstErr
	}

	return RuleResult{
		Score: sum / float64(len(s.rules)),
		Flags: valueobject.NormalizeFlags(flags),
	}, nil
}
