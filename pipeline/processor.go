/*
Package pipeline runs one acceleration sample, and optionally one new location fix,
through the speed tracker, vertical filter, baseline estimator and pothole detector,
producing one classified event.

The pipeline never blocks and never performs I/O. It is not safe for concurrent
use: callers invoke Process from a single goroutine, or serialize calls to one
Processor themselves.
*/
package pipeline

import (
	"github.com/rotblauer/potholed/geo/pothole"
	"github.com/rotblauer/potholed/geo/speed"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/roadevent"
	"github.com/rotblauer/potholed/types/sensor"
	"log/slog"
	"time"
)

// State is everything the pipeline remembers between samples.
// It lives for the lifetime of the Processor and is rebuilt from defaults on restart.
type State struct {
	Filter   pothole.FilterState
	Baseline pothole.BaselineState
	Speed    speed.SpeedState

	// Processed counts samples that produced an event.
	Processed uint64
}

func NewState(config *params.DetectorConfig) *State {
	return &State{
		Filter:   pothole.NewFilterState(config),
		Baseline: pothole.NewBaselineState(config),
	}
}

// Processor is the SampleProcessor.
type Processor struct {
	Config *params.DetectorConfig

	tracker  *speed.Tracker
	filter   *pothole.VerticalMotionFilter
	baseline *pothole.BaselineEstimator
	detector *pothole.Detector

	state  *State
	logger *slog.Logger
}

// NewProcessor builds a processor with fresh state.
// A nil config uses the defaults.
func NewProcessor(config *params.DetectorConfig) *Processor {
	if config == nil {
		config = params.DefaultDetectorConfig()
	}
	return &Processor{
		Config:   config,
		tracker:  speed.NewTracker(config),
		filter:   pothole.NewVerticalMotionFilter(config),
		baseline: pothole.NewBaselineEstimator(),
		detector: pothole.NewDetector(config),
		state:    NewState(config),
		logger:   slog.With("d", "pipeline"),
	}
}

// Process classifies one sample.
// A nil sample (no usable reading this tick) mutates nothing and returns nil;
// the fix, if any, is not consumed either.
// A non-nil fix is fed to the speed tracker before the sample is filtered.
func (p *Processor) Process(sample *sensor.AccelSample, fix *sensor.GeoFix, now time.Time) *roadevent.ClassifiedEvent {
	if sample == nil {
		return nil
	}
	st := p.state

	if fix != nil {
		p.tracker.Update(&st.Speed, *fix)
	}
	filteredZ, hpfZ := p.filter.Update(&st.Filter, sample.Z)
	baseline := p.baseline.Update(&st.Baseline, filteredZ)
	c := p.detector.Classify(filteredZ, baseline, st.Speed.SpeedKmh)

	st.Processed++

	e := &roadevent.ClassifiedEvent{
		Timestamp:   now,
		IsPothole:   c.IsPothole,
		DeltaZ:      c.DeltaZ,
		X:           sample.X,
		Y:           sample.Y,
		Z:           sample.Z,
		SpeedKmh:    st.Speed.SpeedKmh,
		FilteredZ:   filteredZ,
		HighPassZ:   hpfZ,
		Baseline:    baseline,
		Sensitivity: c.Sensitivity,
		Seq:         st.Processed,
	}
	if last := st.Speed.LastFix; last != nil {
		e.Lat, e.Lon = last.Lat, last.Lon
		e.HasFix = true
	}
	if e.IsPothole {
		p.logger.Debug("Pothole", "delta_z", e.DeltaZ, "sensitivity", e.Sensitivity, "speed", e.SpeedKmh)
	}
	return e
}

// Processed returns the monotonically increasing count of processed samples.
// Sinks use it to schedule retention, e.g. purge every N samples.
func (p *Processor) Processed() uint64 {
	return p.state.Processed
}

// State exposes the live pipeline state to diagnostic readers.
// It must only be read between calls to Process.
func (p *Processor) State() *State {
	return p.state
}
