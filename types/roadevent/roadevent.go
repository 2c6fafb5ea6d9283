/*
Package roadevent defines the classified output record of the pipeline.
*/
package roadevent

import (
	"encoding/json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/potholed/types/sensor"
	"math"
	"time"
)

// ClassifiedEvent is one labeled acceleration sample with derived speed and position.
// One is produced per processed sample; it is not mutated after emission.
type ClassifiedEvent struct {
	Timestamp time.Time
	IsPothole bool
	DeltaZ    float64

	X, Y, Z float64

	// Lat and Lon are the last known position, 0/0 before any fix.
	Lat, Lon float64
	// HasFix is set once a fix was received, so a genuine 0/0 position counts.
	HasFix bool

	SpeedKmh float64

	// Diagnostics. Not part of the classification, but useful to observers.
	FilteredZ   float64
	HighPassZ   float64
	Baseline    float64
	Sensitivity float64

	// Seq is the processor's processed-sample count at emission, starting at 1.
	Seq uint64
}

// flatEvent is the wire mapping of an event, one flat object per event.
// Non-finite floats are written as null, since JSON has no NaN.
type flatEvent struct {
	Timestamp   float64  `json:"timestamp"`
	Pothole     bool     `json:"pothole"`
	DeltaZ      *float64 `json:"delta_z"`
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Z           *float64 `json:"z"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	HasFix      bool     `json:"has_fix,omitempty"`
	Speed       *float64 `json:"speed"`
	HighPassZ   *float64 `json:"hpf_z,omitempty"`
	Baseline    *float64 `json:"baseline,omitempty"`
	Sensitivity *float64 `json:"sensitivity,omitempty"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// MarshalJSON implements the json.Marshaler interface.
func (e ClassifiedEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(flatEvent{
		Timestamp:   sensor.ToUnixFloat(e.Timestamp),
		Pothole:     e.IsPothole,
		DeltaZ:      finite(e.DeltaZ),
		X:           finite(e.X),
		Y:           finite(e.Y),
		Z:           finite(e.Z),
		Lat:         e.Lat,
		Lon:         e.Lon,
		HasFix:      e.HasFix,
		Speed:       finite(e.SpeedKmh),
		HighPassZ:   finite(e.HighPassZ),
		Baseline:    finite(e.Baseline),
		Sensitivity: finite(e.Sensitivity),
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// Null numeric fields decode as NaN. Events written without has_fix
// are positioned when their coordinates are not 0/0.
func (e *ClassifiedEvent) UnmarshalJSON(data []byte) error {
	f := flatEvent{}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*e = ClassifiedEvent{
		Timestamp:   sensor.UnixFloat(f.Timestamp),
		IsPothole:   f.Pothole,
		DeltaZ:      orNaN(f.DeltaZ),
		X:           orNaN(f.X),
		Y:           orNaN(f.Y),
		Z:           orNaN(f.Z),
		Lat:         f.Lat,
		Lon:         f.Lon,
		HasFix:      f.HasFix || f.Lat != 0 || f.Lon != 0,
		SpeedKmh:    orNaN(f.Speed),
		HighPassZ:   orNaN(f.HighPassZ),
		Baseline:    orNaN(f.Baseline),
		Sensitivity: orNaN(f.Sensitivity),
	}
	return nil
}

// HasPosition is false until the first fix was received.
func (e *ClassifiedEvent) HasPosition() bool {
	return e.HasFix
}

func (e *ClassifiedEvent) Point() orb.Point {
	return orb.Point{e.Lon, e.Lat}
}

// Feature returns the event as a GeoJSON point feature,
// with the flat event fields as properties.
func (e *ClassifiedEvent) Feature() *geojson.Feature {
	f := geojson.NewFeature(e.Point())
	f.Properties["Time"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	f.Properties["UnixTime"] = e.Timestamp.Unix()
	f.Properties["Pothole"] = e.IsPothole
	f.Properties["Speed"] = e.SpeedKmh / 3.6
	f.Properties["SpeedKmh"] = e.SpeedKmh
	if v := finite(e.DeltaZ); v != nil {
		f.Properties["DeltaZ"] = *v
	}
	f.Properties["AccelerometerX"] = e.X
	f.Properties["AccelerometerY"] = e.Y
	f.Properties["AccelerometerZ"] = e.Z
	return f
}
