package params

import (
	"errors"
	"fmt"
)

// DetectorConfig holds the tuning constants of the filter, baseline,
// speed and threshold stages. The defaults are the empirically chosen
// values the detector was field-tested with; change them with care.
type DetectorConfig struct {
	// LowPassAlpha weights the previous smoothed value against the new sample.
	// At 0.8 and a 0.5s cadence the time constant is about 5 samples.
	LowPassAlpha float64 `mapstructure:"lowpass_alpha" json:"lowpass_alpha"`

	// HighPassAlpha is the one-pole differencer coefficient.
	HighPassAlpha float64 `mapstructure:"highpass_alpha" json:"highpass_alpha"`

	// InitialFilteredZ seeds the low-pass filter, approximating standing gravity (m/s^2).
	InitialFilteredZ float64 `mapstructure:"initial_filtered_z" json:"initial_filtered_z"`

	// BaselineWindow is the number of most recent filtered samples averaged into the baseline.
	BaselineWindow int `mapstructure:"baseline_window" json:"baseline_window"`

	// SensitivityMax is the threshold at standstill.
	SensitivityMax float64 `mapstructure:"sensitivity_max" json:"sensitivity_max"`

	// SensitivityMin is the floor the threshold narrows to with speed.
	SensitivityMin float64 `mapstructure:"sensitivity_min" json:"sensitivity_min"`

	// SensitivityPerKmh is how much the threshold narrows for each km/h of speed.
	SensitivityPerKmh float64 `mapstructure:"sensitivity_per_kmh" json:"sensitivity_per_kmh"`

	// EarthRadiusMeters is the sphere radius used for great-circle distances.
	EarthRadiusMeters float64 `mapstructure:"earth_radius_meters" json:"earth_radius_meters"`
}

func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		LowPassAlpha:      0.8,
		HighPassAlpha:     0.8,
		InitialFilteredZ:  9.8,
		BaselineWindow:    10,
		SensitivityMax:    4,
		SensitivityMin:    1,
		SensitivityPerKmh: 0.5,
		EarthRadiusMeters: 6_371_000,
	}
}

func (c *DetectorConfig) Validate() error {
	if c == nil {
		return errors.New("nil detector config")
	}
	if c.LowPassAlpha < 0 || c.LowPassAlpha > 1 {
		return fmt.Errorf("lowpass alpha out of range [0,1]: %v", c.LowPassAlpha)
	}
	if c.HighPassAlpha < 0 || c.HighPassAlpha > 1 {
		return fmt.Errorf("highpass alpha out of range [0,1]: %v", c.HighPassAlpha)
	}
	if c.BaselineWindow < 1 {
		return fmt.Errorf("baseline window must be positive: %d", c.BaselineWindow)
	}
	if c.SensitivityMin > c.SensitivityMax {
		return fmt.Errorf("sensitivity min %v exceeds max %v", c.SensitivityMin, c.SensitivityMax)
	}
	if c.SensitivityPerKmh < 0 {
		return fmt.Errorf("sensitivity per km/h must not be negative: %v", c.SensitivityPerKmh)
	}
	if c.EarthRadiusMeters <= 0 {
		return fmt.Errorf("earth radius must be positive: %v", c.EarthRadiusMeters)
	}
	return nil
}
