package sensord

import (
	"context"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/potholed/events"
	"github.com/rotblauer/potholed/metrics"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/pipeline"
	"github.com/rotblauer/potholed/sink"
	"github.com/rotblauer/potholed/source"
	"github.com/rotblauer/potholed/types/roadevent"
	"log/slog"
	"time"
)

// SensorDaemon invokes the pipeline at a fixed cadence with the latest reading
// and, when one arrived since the previous tick, the latest fix.
// All ticks run on the daemon's goroutine, so Process is never called concurrently.
type SensorDaemon struct {
	Config    *params.SensorDaemonConfig
	Processor *pipeline.Processor
	Latest    *source.Latest
	Fixes     *source.FixBuffer
	Meters    *metrics.PipelineMeters

	ClassifiedFeed *event.FeedOf[*roadevent.ClassifiedEvent]
	StatusFeed     *event.FeedOf[string]

	// Offline, if set, reports whether the remote store is unreachable;
	// it only changes the status line.
	Offline func() bool

	logger *slog.Logger
}

func NewDaemon(config *params.SensorDaemonConfig, detector *params.DetectorConfig) (*SensorDaemon, error) {
	logger := slog.With("d", "sensor")
	if config == nil {
		logger.Warn("No config provided, using default")
		config = params.DefaultSensorDaemonConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if detector == nil {
		detector = params.DefaultDetectorConfig()
	}
	if err := detector.Validate(); err != nil {
		return nil, err
	}
	dedupe := 0
	if config.DedupeFixes {
		dedupe = config.DedupeCacheSize
	}
	return &SensorDaemon{
		Config:         config,
		Processor:      pipeline.NewProcessor(detector),
		Latest:         source.NewLatest(config.SampleStaleAfter),
		Fixes:          source.NewFixBuffer(dedupe),
		Meters:         metrics.NewPipelineMeters(),
		ClassifiedFeed: &events.ClassifiedFeed,
		StatusFeed:     &events.StatusFeed,
		logger:         logger,
	}, nil
}

// Tick runs the pipeline once. It returns nil when there was no usable reading,
// in which case a pending fix stays buffered for the next tick.
func (d *SensorDaemon) Tick(now time.Time) *roadevent.ClassifiedEvent {
	sample := d.Latest.Get(now)
	if sample == nil {
		d.Meters.MarkSkipped()
		d.logger.Debug("No sample this tick")
		return nil
	}
	fix := d.Fixes.Take()
	if fix != nil {
		d.Meters.MarkFix()
	}
	e := d.Processor.Process(sample, fix, now)
	d.Meters.MarkEvent(e)
	if e.IsPothole {
		d.logger.Info("Pothole", "delta_z", e.DeltaZ, "lat", e.Lat, "lon", e.Lon, "speed", e.SpeedKmh)
	}

	d.ClassifiedFeed.Send(e)
	offline := d.Offline != nil && d.Offline()
	d.StatusFeed.Send(sink.StatusLine(e, offline))
	return e
}

// Run ticks until ctx is done.
func (d *SensorDaemon) Run(ctx context.Context) error {
	d.logger.Info("Starting sensor daemon", "interval", d.Config.TickInterval)
	go d.Meters.LogEvery(ctx, d.Config.MeterLogInterval)

	ticker := time.NewTicker(d.Config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.Meters.Log()
			d.Meters.Stop()
			d.logger.Info("Sensor daemon stopped", "processed", d.Processor.Processed())
			return nil
		case now := <-ticker.C:
			d.Tick(now)
		}
	}
}
