package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
)

func TestRiskLevel_String(t *testing.T) {
	assert.Equal(t, "LOW", valueobject.RiskLevelLow.String())
	assert.Equal(t, "MEDIUM", valueobject.RiskLevelMedium.String())
	assert.Equal(t, "HIGH", valueobject.RiskLevelHigh.String())
	assert.Equal(t, "CRITICAL", valueobject.RiskLevelCritical.String())
}

func TestRiskLevel_FromString(t *testing.T) {
	tests := []struct {
		input    string
		expected valueobject.RiskLevel
		wantErr  bool
	}{
		{"LOW", valueobject.RiskLevelLow, false},
		{"MEDIUM", valueobject.RiskLevelMedium, false},
		{"HIGH", valueobject.RiskLevelHigh, false},
		{"CRITICAL", valueobject.RiskLevelCritical, false},
		{"INVALID", valueobject.RiskLevel{}, true},
		{"", valueobject.RiskLevel{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := valueobject.RiskLevelFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.True(t, tt.expected.Equal(result))
			}
		})
	}
}

func TestRiskLevel_FromScore(t *testing.T) {
	tests := []struct {
		name     string
		expected valueobject.RiskLevel
		score    float64
	}{
		{name: "score 0.0 is LOW", expected: valueobject.RiskLevelLow, score: 0.0},
		{name: "score 0.39 is LOW", expected: valueobject.RiskLevelLow, score: 0.39},
		{name: "score 0.4 is MEDIUM", expected: valueobject.RiskLevelMedium, score: 0.4},
		{name: "score 0.5 is MEDIUM", expected: valueobject.RiskLevelMedium, score: 0.5},
		{name: "score 0.59 is MEDIUM", expected: valueobject.RiskLevelMedium, score: 0.59},
		{name: "score 0.6 is HIGH", expected: valueobject.RiskLevelHigh, score: 0.6},
		{name: "score 0.79 is HIGH", expected: valueobject.RiskLevelHigh, score: 0.79},
		{name: "score 0.8 is CRITICAL", expected: valueobject.RiskLevelCritical, score: 0.8},
		{name: "score 1.0 is CRITICAL", expected: valueobject.RiskLevelCritical, score: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := valueobject.RiskLevelFromScore(tt.score)
			assert.True(t, tt.expected.Equal(result),
				"expected %s for score %.2f, got %s", tt.expected.String(), tt.score, result.String())
		})
	}
}

func TestRiskLevel_IsAtLeast(t *testing.T) {
	tests := []struct {
		name     string
		level    valueobject.RiskLevel
		other    valueobject.RiskLevel
		expected bool
	}{
		{"LOW is at least LOW", valueobject.RiskLevelLow, valueobject.RiskLevelLow, true},
		{"LOW is not at least MEDIUM", valueobject.RiskLevelLow, valueobject.RiskLevelMedium, false},
		{"HIGH is at least MEDIUM", valueobject.RiskLevelHigh, valueobject.RiskLevelMedium, true},
		{"HIGH is at least HIGH", valueobject.RiskLevelHigh, valueobject.RiskLevelHigh, true},
		{"HIGH is not at least CRITICAL", valueobject.RiskLevelHigh, valueobject.RiskLevelCritical, false},
		{"CRITICAL is at least HIGH", valueobject.RiskLevelCritical, valueobject.RiskLevelHigh, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.IsAtLeast(tt.other))
		})
	}
}

func TestRiskLevel_Equal(t *testing.T) {
	assert.True(t, valueobject.RiskLevelLow.Equal(valueobject.RiskLevelLow))
	assert.False(t, valueobject.RiskLevelLow.Equal(valueobject.RiskLevelHigh))
}

func TestRiskLevel_IsZero(t *testing.T) {
	var zero valueobject.RiskLevel
	assert.True(t, zero.IsZero())
	assert.False(t, valueobject.RiskLevelLow.IsZero())
}
