package detect

import "time"

// timeHours converts a fractional hour count (configuration values are
// float64 so they can be tuned finely) into a time.Duration.
func timeHours(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
