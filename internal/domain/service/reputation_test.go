package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurorapay/risk-engine/internal/domain/service"
)

type mockDeviceReputation struct {
	scoreFunc func(ctx context.Context, fingerprint string) (float64, error)
}

func (m *mockDeviceReputation) Score(ctx context.Context, fingerprint string) (float64, error) {
	if m.scoreFunc != nil {
		return m.scoreFunc(ctx, fingerprint)
	}
	return 0, nil
}

type mockIPReputation struct {
	scoreFunc func(ctx context.Context, address string) (float64, error)
}

func (m *mockIPReputation) Score(ctx context.Context, address string) (float64, error) {
	if m.scoreFunc != nil {
		return m.scoreFunc(ctx, address)
	}
	return 0, nil
}

func fixedDeviceScore(score float64) *mockDeviceReputation {
	return &mockDeviceReputation{
		scoreFunc: func(_ context.Context, _ string) (float64, error) { return score, nil },
	}
}

func fixedIPScore(score float64) *mockIPReputation {
	return &mockIPReputation{
		scoreFunc: func(_ context.Context, _ string) (float64, error) { return score, nil },
	}
}

func TestReputationAnalyzer_SumsScores(t *testing.T) {
	analyzer := service.NewReputationAnalyzer(fixedDeviceScore(0.25), fixedIPScore(0.3))

	score, err := analyzer.Analyze(context.Background(), eventWith(nil))
	require.NoError(t, err)
	assert.InDelta(t, 0.55, score, 1e-9)
}

func TestReputationAnalyzer_ClampsToOne(t *testing.T) {
	analyzer := service.NewReputationAnalyzer(fixedDeviceScore(0.7), fixedIPScore(0.7))

	score, err := analyzer.Analyze(context.Background(), eventWith(nil))
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestReputationAnalyzer_CleanInputsScoreZero(t *testing.T) {
	analyzer := service.NewReputationAnalyzer(&mockDeviceReputation{}, &mockIPReputation{})

	score, err := analyzer.Analyze(context.Background(), eventWith(nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestReputationAnalyzer_DeviceLookupError(t *testing.T) {
	devices := &mockDeviceReputation{
		scoreFunc: func(_ context.Context, _ string) (float64, error) {
			return 0, fmt.Errorf("provider down")
		},
	}
	analyzer := service.NewReputationAnalyzer(devices, fixedIPScore(0))

	_, err := analyzer.Analyze(context.Background(), eventWith(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device reputation")
}

func TestReputationAnalyzer_IPLookupError(t *testing.T) {
	ips := &mockIPReputation{
		scoreFunc: func(_ context.Context, _ string) (float64, error) {
			return 0, fmt.Errorf("provider down")
		},
	}
	analyzer := service.NewReputationAnalyzer(fixedDeviceScore(0), ips)

	_, err := analyzer.Analyze(context.Background(), eventWith(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ip reputation")
}

func TestReputationAnalyzer_PassesIdentifiers(t *testing.T) {
	var gotFingerprint, gotAddress string
	devices := &mockDeviceReputation{
		scoreFunc: func(_ context.Context, fp string) (float64, error) {
			gotFingerprint = fp
			return 0, nil
		},
	}
	ips := &mockIPReputation{
		scoreFunc: func(_ context.Context, addr string) (float64, error) {
			gotAddress = addr
			return 0, nil
		},
	}

	analyzer := service.NewReputationAnalyzer(devices, ips)
	_, err := analyzer.Analyze(context.Background(), eventWith(nil))
	require.NoError(t, err)

	assert.Equal(t, "device-fp-0001", gotFingerprint)
	assert.Equal(t, "203.0.113.10", gotAddress)
}
