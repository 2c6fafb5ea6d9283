package sensor

import (
	"math"
	"time"
)

// UnixFloat converts fractional unix seconds to a time.
func UnixFloat(seconds float64) time.Time {
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}

// ToUnixFloat converts a time to fractional unix seconds.
func ToUnixFloat(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
