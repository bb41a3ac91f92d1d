package testutil

import (
	"github.com/google/uuid"
)

// Fixed identifiers for deterministic testing
var (
	TestUserID1      = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestUserID2      = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestTenantID     = uuid.MustParse("00000000-0000-0000-0000-000000000010")
	TestAssessmentID = uuid.MustParse("00000000-0000-0000-0000-000000000030")
)

// Fixed transaction attributes for deterministic testing
const (
	TestDeviceFingerprint = "device-fp-0001"
	TestIPAddress         = "203.0.113.10"
)
