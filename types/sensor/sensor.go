/*
Package sensor defines the raw readings the pipeline consumes:
tri-axial acceleration samples and geolocation fixes,
and the NDJSON record format hosts use to carry them.
*/
package sensor

import (
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"math"
	"time"
)

var (
	// ErrMissingSample marks a sensor tick without a usable reading,
	// e.g. one or more axes were undefined.
	ErrMissingSample = errors.New("missing sample")

	// ErrInvalidFix marks a location report with absent or out-of-range coordinates.
	ErrInvalidFix = errors.New("invalid fix")

	// ErrUnknownRecord marks a record of neither accel nor fix type.
	ErrUnknownRecord = errors.New("unknown record type")
)

// AccelSample is an instantaneous raw acceleration reading, in m/s^2.
type AccelSample struct {
	X, Y, Z float64
}

// NewAccelSample normalizes a reading with possibly-undefined axes.
// Any nil axis yields ErrMissingSample.
func NewAccelSample(x, y, z *float64) (*AccelSample, error) {
	if x == nil || y == nil || z == nil {
		return nil, ErrMissingSample
	}
	return &AccelSample{X: *x, Y: *y, Z: *z}, nil
}

// GeoFix is a location fix. Time is the host's receipt time of the fix,
// which is what elapsed-time math uses. ReportedTime is the provider's
// embedded timestamp, if any, and is kept for diagnostics only.
// A GeoFix is never mutated after creation.
type GeoFix struct {
	Lat, Lon     float64
	Time         time.Time
	ReportedTime time.Time
}

// NewGeoFix validates coordinates and returns a fix received at the given time.
func NewGeoFix(lat, lon float64, received time.Time) (*GeoFix, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	return &GeoFix{Lat: lat, Lon: lon, Time: received}, nil
}

// ValidateCoordinates rejects latitudes outside [-90,90], longitudes outside [-180,180],
// and non-finite values.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return fmt.Errorf("%w: NaN coordinate", ErrInvalidFix)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidFix, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidFix, lon)
	}
	return nil
}

// Point returns the fix as an orb point (lon, lat).
func (f GeoFix) Point() orb.Point {
	return orb.Point{f.Lon, f.Lat}
}

// WithTime returns a copy of the fix stamped with a new receipt time.
func (f GeoFix) WithTime(received time.Time) *GeoFix {
	f.Time = received
	return &f
}
