/*
Package metrics counts what the scheduler does: samples processed and skipped,
potholes found, fixes consumed, sink failures.
A periodic logger reports totals and one-minute rates.
*/
package metrics

import (
	"context"
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/types/roadevent"
	"log/slog"
	"time"
)

type PipelineMeters struct {
	started time.Time
	reg     metrics.Registry

	processed  metrics.Meter
	potholes   metrics.Meter
	skipped    metrics.Counter
	fixes      metrics.Counter
	sinkErrors metrics.Counter
}

type Summary struct {
	Processed  int64   `json:"processed"`
	Potholes   int64   `json:"potholes"`
	Skipped    int64   `json:"skipped"`
	Fixes      int64   `json:"fixes"`
	SinkErrors int64   `json:"sink_errors"`
	Rate1      float64 `json:"rate1"`
}

func NewPipelineMeters() *PipelineMeters {
	// Enable metrics package.
	// Won't work without this global setting.
	metrics.Enabled = true

	m := &PipelineMeters{
		started:    time.Now(),
		reg:        metrics.NewRegistry(),
		processed:  metrics.NewMeter(),
		potholes:   metrics.NewMeter(),
		skipped:    metrics.NewCounter(),
		fixes:      metrics.NewCounter(),
		sinkErrors: metrics.NewCounter(),
	}
	for name, v := range map[string]interface{}{
		"pipeline.processed.meter": m.processed,
		"pipeline.potholes.meter":  m.potholes,
		"pipeline.skipped.count":   m.skipped,
		"pipeline.fixes.count":     m.fixes,
		"sink.errors.count":        m.sinkErrors,
	} {
		if err := m.reg.Register(name, v); err != nil {
			panic(err)
		}
	}
	return m
}

func (m *PipelineMeters) MarkEvent(e *roadevent.ClassifiedEvent) {
	m.processed.Mark(1)
	if e.IsPothole {
		m.potholes.Mark(1)
	}
}

func (m *PipelineMeters) MarkSkipped()   { m.skipped.Inc(1) }
func (m *PipelineMeters) MarkFix()       { m.fixes.Inc(1) }
func (m *PipelineMeters) MarkSinkError() { m.sinkErrors.Inc(1) }

func (m *PipelineMeters) Snapshot() Summary {
	ps := m.processed.Snapshot()
	return Summary{
		Processed:  ps.Count(),
		Potholes:   m.potholes.Snapshot().Count(),
		Skipped:    m.skipped.Snapshot().Count(),
		Fixes:      m.fixes.Snapshot().Count(),
		SinkErrors: m.sinkErrors.Snapshot().Count(),
		Rate1:      ps.Rate1(),
	}
}

func (m *PipelineMeters) Uptime() time.Duration {
	return time.Since(m.started).Round(time.Second)
}

// LogEvery logs a summary at each interval until ctx is done.
func (m *PipelineMeters) LogEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Log()
		}
	}
}

func (m *PipelineMeters) Log() {
	s := m.Snapshot()
	slog.Info("Pipeline", "processed", humanize.Comma(s.Processed),
		"potholes", humanize.Comma(s.Potholes),
		"skipped", humanize.Comma(s.Skipped),
		"fixes", humanize.Comma(s.Fixes),
		"sink.errors", humanize.Comma(s.SinkErrors),
		"sps", common.DecimalToFixed(s.Rate1, 2),
		"running", m.Uptime())
}

func (m *PipelineMeters) Stop() {
	m.processed.Stop()
	m.potholes.Stop()
}
