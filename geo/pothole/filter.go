/*
Package pothole classifies vertical acceleration samples as pothole or normal road.

A sample flows through three stages: the VerticalMotionFilter smooths the raw
z axis, the BaselineEstimator averages recent smoothed values into a resting
(gravity) reference, and the Detector compares the smoothed value against that
reference with a threshold that narrows with vehicle speed.
Each stage holds only configuration; mutable state lives in the state structs,
owned by the caller and passed by pointer.
*/
package pothole

import "github.com/rotblauer/potholed/params"

// FilterState is created once per pipeline and mutated once per sample.
type FilterState struct {
	FilteredZ float64
	HighPassZ float64
	LastZ     float64
}

// NewFilterState seeds the low-pass output at standing gravity.
func NewFilterState(config *params.DetectorConfig) FilterState {
	return FilterState{FilteredZ: config.InitialFilteredZ}
}

// VerticalMotionFilter maintains low-pass and high-pass views of the vertical axis.
//
// Only the low-pass output feeds detection. The high-pass output is kept
// for diagnostics (it is reported on every event); detection deliberately
// uses the baseline-subtracted low-pass signal instead.
type VerticalMotionFilter struct {
	LowPassAlpha  float64
	HighPassAlpha float64
}

func NewVerticalMotionFilter(config *params.DetectorConfig) *VerticalMotionFilter {
	return &VerticalMotionFilter{
		LowPassAlpha:  config.LowPassAlpha,
		HighPassAlpha: config.HighPassAlpha,
	}
}

// Update filters one z reading. Non-finite input propagates as NaN.
func (f *VerticalMotionFilter) Update(s *FilterState, z float64) (filteredZ, hpfZ float64) {
	s.FilteredZ = f.LowPassAlpha*s.FilteredZ + (1-f.LowPassAlpha)*z
	s.HighPassZ = f.HighPassAlpha * (s.HighPassZ + z - s.LastZ)
	s.LastZ = z
	return s.FilteredZ, s.HighPassZ
}
