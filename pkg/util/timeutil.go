package util

import "time"

// NowUTC is the clock behind note timestamps. UTC keeps list ordering
// stable across hosts in different timezones.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// MillisSince reports elapsed wall time in milliseconds for latency logs.
func MillisSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
