package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aurorapay/risk-engine/internal/domain/valueobject"
)

func TestNormalizeFlags(t *testing.T) {
	tests := []struct {
		name     string
		input    []valueobject.Flag
		expected []valueobject.Flag
	}{
		{
			name:     "nil input yields empty slice",
			input:    nil,
			expected: []valueobject.Flag{},
		},
		{
			name: "duplicates are removed",
			input: []valueobject.Flag{
				valueobject.FlagRoundAmount,
				valueobject.FlagRoundAmount,
				valueobject.FlagLargeAmount,
			},
			expected: []valueobject.Flag{
				valueobject.FlagLargeAmount,
				valueobject.FlagRoundAmount,
			},
		},
		{
			name: "output is sorted lexicographically",
			input: []valueobject.Flag{
				valueobject.FlagVelocityExceeded,
				valueobject.FlagNewDevice,
				valueobject.FlagHighVelocity,
			},
			expected: []valueobject.Flag{
				valueobject.FlagHighVelocity,
				valueobject.FlagNewDevice,
				valueobject.FlagVelocityExceeded,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, valueobject.NormalizeFlags(tt.input))
		})
	}
}

func TestNormalizeFlags_DoesNotMutateInput(t *testing.T) {
	input := []valueobject.Flag{
		valueobject.FlagVelocityExceeded,
		valueobject.FlagHighVelocity,
	}
	_ = valueobject.NormalizeFlags(input)
	assert.Equal(t, valueobject.FlagVelocityExceeded, input[0])
	assert.Equal(t, valueobject.FlagHighVelocity, input[1])
}

func TestContainsFlag(t *testing.T) {
	flags := []valueobject.Flag{valueobject.FlagUnusualTime, valueobject.FlagNewDevice}
	assert.True(t, valueobject.ContainsFlag(flags, valueobject.FlagNewDevice))
	assert.False(t, valueobject.ContainsFlag(flags, valueobject.FlagSanctionsMatch))
	assert.False(t, valueobject.ContainsFlag(nil, valueobject.FlagNewDevice))
}

func TestFlagsRoundTrip(t *testing.T) {
	flags := []valueobject.Flag{
		valueobject.FlagUnusualLocation,
		valueobject.FlagSuspiciousDevice,
	}
	strs := valueobject.FlagsToStrings(flags)
	assert.Equal(t, []string{"UNUSUAL_LOCATION", "SUSPICIOUS_DEVICE"}, strs)
	assert.Equal(t, flags, valueobject.FlagsFromStrings(strs))
}
