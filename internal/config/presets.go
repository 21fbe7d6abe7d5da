package config

// Presets are factories producing a Configuration with a fixed subset of
// fields overridden from Default(); every other key remains at its
// documented default, matching the contract in the external-interfaces
// section of the specification.

// Aggressive lowers thresholds across the board to surface more candidate
// rings and patterns at the cost of precision.
func Aggressive() Configuration {
	c := Default()
	c.SmurfingThreshold = 9000.0
	c.TimeWindowHours = 96.0
	c.MinFanDegree = 3
	c.MinSuspicionScore = 35.0
	c.TxPerDayThreshold = 5.0
	return c
}

// Conservative raises thresholds to reduce false positives, at the cost of
// missing borderline patterns.
func Conservative() Configuration {
	c := Default()
	c.SmurfingThreshold = 12000.0
	c.TimeWindowHours = 48.0
	c.MinFanDegree = 7
	c.MinSuspicionScore = 55.0
	c.TxPerDayThreshold = 15.0
	return c
}

// Balanced is the documented default configuration, named explicitly so
// callers can select it the same way as the other two presets.
func Balanced() Configuration {
	return Default()
}

// Preset resolves a preset name to its configuration factory. The second
// return value is false for unknown names.
func Preset(name string) (Configuration, bool) {
	switch name {
	case "aggressive":
		return Aggressive(), true
	case "conservative":
		return Conservative(), true
	case "balanced":
		return Balanced(), true
	default:
		return Configuration{}, false
	}
}
