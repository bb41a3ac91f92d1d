package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertErrorContains asserts that err is non-nil and mentions the expected
// substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), expected)
	}
}
