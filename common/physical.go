package common

// All units are in metric:
// - Speed is in m/s unless suffixed Kmh
// - Distance is in meters
// - Time is in seconds
// - Acceleration is in m/s^2

// KmhPerMps converts m/s to km/h.
const KmhPerMps = 3.6

func MpsToKmh(mps float64) float64 {
	return mps * KmhPerMps
}
