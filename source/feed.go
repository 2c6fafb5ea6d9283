package source

import (
	"context"
	"github.com/rotblauer/potholed/types/sensor"
	"log/slog"
)

// Feed routes decoded records into the latest-reading holder and the fix buffer
// until records is closed or ctx is done.
// Accel records without a usable sample clear the held reading, so the next tick is skipped.
// Fix records with invalid coordinates are dropped.
func Feed(ctx context.Context, records <-chan *sensor.Record, latest *Latest, fixes *FixBuffer) {
	logger := slog.With("d", "source")
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			switch rec.Type {
			case sensor.RecordTypeAccel:
				if rec.Accel == nil {
					logger.Debug("Missing sample", "time", rec.Time)
				}
				latest.Set(rec.Accel, rec.Time)
			case sensor.RecordTypeFix:
				if rec.Fix == nil {
					logger.Warn("Invalid GPS data received", "time", rec.Time)
					continue
				}
				if !fixes.Offer(rec.Fix) {
					logger.Debug("Duplicate fix dropped", "lat", rec.Fix.Lat, "lon", rec.Fix.Lon)
				}
			}
		}
	}
}
