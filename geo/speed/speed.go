/*
Package speed derives instantaneous vehicle speed from consecutive location fixes.
*/
package speed

import (
	"github.com/paulmach/orb"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/sensor"
	"math"
)

// SpeedState is owned by exactly one pipeline.
// SpeedKmh is retained until a later fix pair supersedes it.
type SpeedState struct {
	LastFix  *sensor.GeoFix
	SpeedKmh float64
}

// Tracker is the GeoSpeedTracker: it holds configuration only,
// state is passed in by its owner on each update.
type Tracker struct {
	EarthRadius float64
}

func NewTracker(config *params.DetectorConfig) *Tracker {
	if config == nil {
		config = params.DefaultDetectorConfig()
	}
	return &Tracker{EarthRadius: config.EarthRadiusMeters}
}

// Update feeds a fix and returns the current speed in km/h.
//
// The first fix only seeds the state. Later fixes compute the great-circle
// distance from the previous fix over the elapsed time between their
// receipt times; the fix's provider-reported time is not used.
// Zero or negative elapsed time (duplicate or out-of-order receipt)
// leaves the speed unchanged. The fix always replaces LastFix.
func (t *Tracker) Update(s *SpeedState, fix sensor.GeoFix) float64 {
	if s.LastFix != nil {
		distance := Haversine(s.LastFix.Point(), fix.Point(), t.EarthRadius)
		elapsed := fix.Time.Sub(s.LastFix.Time).Seconds()
		if elapsed > 0 {
			s.SpeedKmh = common.MpsToKmh(distance / elapsed)
		}
	}
	s.LastFix = &fix
	return s.SpeedKmh
}

// Haversine returns the great-circle distance in meters between two
// points on a sphere of the given radius.
// orb's geo.DistanceHaversine is the same formula fixed to the WGS84
// equatorial radius; the detector's speed thresholds were tuned on the
// 6371km mean radius, so the radius is a parameter here.
func Haversine(a, b orb.Point, radius float64) float64 {
	phi1 := deg2rad(a.Lat())
	phi2 := deg2rad(b.Lat())
	dPhi := deg2rad(b.Lat() - a.Lat())
	dLambda := deg2rad(b.Lon() - a.Lon())

	sinDPhi := math.Sin(dPhi / 2)
	sinDLambda := math.Sin(dLambda / 2)
	h := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLambda*sinDLambda
	return 2 * radius * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180.0
}
