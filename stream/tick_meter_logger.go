package stream

import (
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/types/sensor"
	"log/slog"
	"sync/atomic"
	"time"
)

type tickScanMeter struct {
	label      atomic.Int64 // last record time, unix nanos
	interval   time.Duration
	started    time.Time
	ticker     *time.Ticker
	done       chan struct{}
	nn         atomic.Uint64
	reg        metrics.Registry
	size       metrics.Counter
	countMeter metrics.Meter
	sizeMeter  metrics.Meter
	accel      metrics.Counter
	fix        metrics.Counter
}

func newTickScanMeter(interval time.Duration) *tickScanMeter {
	// Enable metrics package.
	// Won't work without this global setting.
	metrics.Enabled = true

	reg := metrics.NewRegistry()
	rl := &tickScanMeter{
		reg:        reg,
		interval:   interval,
		started:    time.Now(),
		size:       metrics.NewCounter(),
		countMeter: metrics.NewMeter(),
		sizeMeter:  metrics.NewMeter(),
		accel:      metrics.NewCounter(),
		fix:        metrics.NewCounter(),
		done:       make(chan struct{}),
	}
	for name, m := range map[string]interface{}{
		"size.count":  rl.size,
		"line.meter":  rl.countMeter,
		"size.meter":  rl.sizeMeter,
		"accel.count": rl.accel,
		"fix.count":   rl.fix,
	} {
		if err := reg.Register(name, m); err != nil {
			panic(err)
		}
	}
	rl.ticker = time.NewTicker(rl.interval)
	go rl.run()
	return rl
}

func (rl *tickScanMeter) mark(rec *sensor.Record, data []byte) {
	rl.label.Store(rec.Time.UnixNano())
	rl.nn.Add(1)
	rl.size.Inc(int64(len(data)))
	rl.countMeter.Mark(1)
	rl.sizeMeter.Mark(int64(len(data)))
	switch rec.Type {
	case sensor.RecordTypeAccel:
		rl.accel.Inc(1)
	case sensor.RecordTypeFix:
		rl.fix.Inc(1)
	}
}

func (rl *tickScanMeter) run() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.ticker.C:
			rl.log()
		}
	}
}

func (rl *tickScanMeter) log() {
	countSnap := rl.countMeter.Snapshot()
	sizeSnap := rl.sizeMeter.Snapshot()

	slog.Info("Read records", "n", humanize.Comma(countSnap.Count()),
		"accel", humanize.Comma(rl.accel.Snapshot().Count()),
		"fix", humanize.Comma(rl.fix.Snapshot().Count()),
		"read.last", time.Unix(0, rl.label.Load()).Format(time.DateTime),
		"rps", common.DecimalToFixed(countSnap.Rate1(), 0),
		"bps", humanize.Bytes(uint64(sizeSnap.Rate1())),
		"total.bytes", humanize.Bytes(uint64(sizeSnap.Count())),
		"running", time.Since(rl.started).Round(time.Second))
}

func (rl *tickScanMeter) stop() {
	if rl == nil || rl.ticker == nil {
		return
	}
	rl.ticker.Stop()
	close(rl.done)
	rl.countMeter.Stop()
	rl.sizeMeter.Stop()
}
