package params

import (
	"fmt"
	"time"
)

type SensorDaemonConfig struct {
	// TickInterval is the fixed cadence at which the pipeline is invoked.
	TickInterval time.Duration `mapstructure:"tick_interval" json:"tick_interval"`

	// SampleStaleAfter treats the latest accelerometer reading as missing
	// once it is older than this. Zero disables the check, so a reading
	// is reused on every tick until superseded.
	SampleStaleAfter time.Duration `mapstructure:"sample_stale_after" json:"sample_stale_after"`

	// DedupeFixes drops location reports identical to a recently seen one.
	DedupeFixes bool `mapstructure:"dedupe_fixes" json:"dedupe_fixes"`

	// DedupeCacheSize bounds the fix dedupe cache.
	DedupeCacheSize int `mapstructure:"dedupe_cache_size" json:"dedupe_cache_size"`

	// MeterLogInterval is how often the pipeline rates are logged. Zero disables it.
	MeterLogInterval time.Duration `mapstructure:"meter_log_interval" json:"meter_log_interval"`
}

func DefaultSensorDaemonConfig() *SensorDaemonConfig {
	return &SensorDaemonConfig{
		TickInterval:     500 * time.Millisecond,
		SampleStaleAfter: 0,
		DedupeFixes:      false,
		DedupeCacheSize:  1_000,
		MeterLogInterval: time.Minute,
	}
}

func (c *SensorDaemonConfig) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive: %v", c.TickInterval)
	}
	if c.DedupeFixes && c.DedupeCacheSize < 1 {
		return fmt.Errorf("dedupe cache size must be positive: %d", c.DedupeCacheSize)
	}
	return nil
}
