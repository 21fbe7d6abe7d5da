package score

// Flag is one member of the closed suspicion-flag vocabulary. Unlike the
// teacher's bitmask (internal/heuristics/watchlist.go), flags here need to
// render as readable JSON strings and be counted for the multiple_patterns
// rule, so they're a typed enum carried in a slice rather than OR'd bits.
type Flag int

const (
	FlagCycleMember Flag = iota
	FlagFanInSmurfing
	FlagFanOutSmurfing
	FlagShellAccount
	FlagHighVelocity
	FlagBelowThresholdStructuring
	FlagMultiplePatterns
	FlagHighRiskPattern
)

func (f Flag) String() string {
	switch f {
	case FlagCycleMember:
		return "cycle_member"
	case FlagFanInSmurfing:
		return "fan_in_smurfing"
	case FlagFanOutSmurfing:
		return "fan_out_smurfing"
	case FlagShellAccount:
		return "shell_account"
	case FlagHighVelocity:
		return "high_velocity"
	case FlagBelowThresholdStructuring:
		return "below_threshold_structuring"
	case FlagMultiplePatterns:
		return "multiple_patterns"
	case FlagHighRiskPattern:
		return "high_risk_pattern"
	default:
		return "unknown"
	}
}

// MarshalJSON renders a Flag as its string name rather than its ordinal.
func (f Flag) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}
