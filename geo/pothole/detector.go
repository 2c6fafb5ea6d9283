package pothole

import (
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/params"
	"math"
)

// Classification is the detector's verdict on one sample.
type Classification struct {
	DeltaZ      float64
	IsPothole   bool
	Sensitivity float64
}

// Detector is the PotholeDetector. It is a pure function of its inputs.
type Detector struct {
	SensitivityMax    float64
	SensitivityMin    float64
	SensitivityPerKmh float64
}

func NewDetector(config *params.DetectorConfig) *Detector {
	return &Detector{
		SensitivityMax:    config.SensitivityMax,
		SensitivityMin:    config.SensitivityMin,
		SensitivityPerKmh: config.SensitivityPerKmh,
	}
}

// Sensitivity is the threshold a downward deviation must exceed.
// It is widest at standstill, where jostling is common, and narrows
// linearly with speed to a floor, since potholes at speed produce
// smaller smoothed deviations.
func (d *Detector) Sensitivity(speedKmh float64) float64 {
	return common.Clamp(d.SensitivityMax-speedKmh*d.SensitivityPerKmh, d.SensitivityMin, d.SensitivityMax)
}

// Classify flags downward jolts only: deltaZ < -sensitivity.
// A NaN deviation or threshold is never a pothole.
func (d *Detector) Classify(filteredZ, baseline, speedKmh float64) Classification {
	c := Classification{
		DeltaZ:      filteredZ - baseline,
		Sensitivity: d.Sensitivity(speedKmh),
	}
	if math.IsNaN(c.DeltaZ) || math.IsNaN(c.Sensitivity) {
		return c
	}
	c.IsPothole = c.DeltaZ < -c.Sensitivity
	return c
}
