package valueobject

import "sort"

// Flag identifies a named risk signal raised during assessment. The
// vocabulary is closed: evaluators only ever raise the flags below.
type Flag string

const (
	FlagVelocityExceeded Flag = "VELOCITY_EXCEEDED"
	FlagHighVelocity     Flag = "HIGH_VELOCITY"
	FlagRoundAmount      Flag = "ROUND_AMOUNT"
	FlagLargeAmount      Flag = "LARGE_AMOUNT"
	FlagUnusualLocation  Flag = "UNUSUAL_LOCATION"
	FlagUnusualTime      Flag = "UNUSUAL_TIME"
	FlagNewDevice        Flag = "NEW_DEVICE"
	FlagUnusualBehavior  Flag = "UNUSUAL_BEHAVIOR"
	FlagSuspiciousDevice Flag = "SUSPICIOUS_DEVICE"
	FlagSanctionsMatch   Flag = "SANCTIONS_MATCH"
	FlagAnalysisError    Flag = "ANALYSIS_ERROR"
)

// String returns the flag identifier.
func (f Flag) String() string {
	return string(f)
}

// NormalizeFlags deduplicates and sorts flags so that repeated assessments of
// identical inputs produce identical output regardless of evaluator
// completion order.
func NormalizeFlags(flags []Flag) []Flag {
	if len(flags) == 0 {
		return []Flag{}
	}
	seen := make(map[Flag]struct{}, len(flags))
	out := make([]Flag, 0, len(flags))
	for _, f := range flags {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ContainsFlag reports whether flags includes the target flag.
func ContainsFlag(flags []Flag, target Flag) bool {
	for _, f := range flags {
		if f == target {
			return true
		}
	}
	return false
}

// FlagsToStrings converts flags to plain strings for persistence and events.
func FlagsToStrings(flags []Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}

// FlagsFromStrings converts persisted strings back to flags.
func FlagsFromStrings(values []string) []Flag {
	out := make([]Flag, len(values))
	for i, v := range values {
		out[i] = Flag(v)
	}
	return out
}
