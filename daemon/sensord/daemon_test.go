package sensord

import (
	"context"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/roadevent"
	"github.com/rotblauer/potholed/types/sensor"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestDaemon(t *testing.T) *SensorDaemon {
	t.Helper()
	d, err := NewDaemon(params.DefaultSensorDaemonConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	// Keep tests off the process-wide feeds.
	d.ClassifiedFeed = &event.FeedOf[*roadevent.ClassifiedEvent]{}
	d.StatusFeed = &event.FeedOf[string]{}
	t.Cleanup(d.Meters.Stop)
	return d
}

func TestTick_NoSampleKeepsFix(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn + 1)()
	d := newTestDaemon(t)
	d.Fixes.Offer(&sensor.GeoFix{Lat: 1, Lon: 1, Time: time.Unix(1, 0)})
	if e := d.Tick(time.Unix(1, 0)); e != nil {
		t.Fatalf("Expected no event, but got %+v", e)
	}
	if d.Processor.Processed() != 0 {
		t.Errorf("Expected nothing processed, but got %d", d.Processor.Processed())
	}
	d.Latest.Set(&sensor.AccelSample{Z: 9.8}, time.Unix(2, 0))
	e := d.Tick(time.Unix(2, 0))
	if e == nil || e.Lat != 1 {
		t.Errorf("Expected buffered fix used on the next tick, but got %+v", e)
	}
	s := d.Meters.Snapshot()
	if s.Skipped != 1 || s.Processed != 1 || s.Fixes != 1 {
		t.Errorf("Expected 1 skipped, 1 processed, 1 fix, but got %+v", s)
	}
}

func TestTick_SendsFeeds(t *testing.T) {
	d := newTestDaemon(t)
	events := make(chan *roadevent.ClassifiedEvent, 1)
	statuses := make(chan string, 1)
	defer d.ClassifiedFeed.Subscribe(events).Unsubscribe()
	defer d.StatusFeed.Subscribe(statuses).Unsubscribe()

	d.Latest.Set(&sensor.AccelSample{Z: 2.0}, time.Unix(0, 0))
	d.Tick(time.Unix(0, 0))

	e := <-events
	if e.Seq != 1 {
		t.Errorf("Expected seq 1, but got %d", e.Seq)
	}
	if got := <-statuses; !strings.HasSuffix(got, "GPS: Waiting...") {
		t.Errorf("Expected waiting status, but got %q", got)
	}
}

func TestTick_ReusesReading(t *testing.T) {
	d := newTestDaemon(t)
	d.Latest.Set(&sensor.AccelSample{Z: 9.8}, time.Unix(0, 0))
	for i := 1; i <= 3; i++ {
		d.Tick(time.Unix(int64(i), 0))
	}
	if d.Processor.Processed() != 3 {
		t.Errorf("Expected 3 processed, but got %d", d.Processor.Processed())
	}
}

func TestRun(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn + 1)()
	config := params.DefaultSensorDaemonConfig()
	config.TickInterval = 5 * time.Millisecond
	config.MeterLogInterval = 0
	d, err := NewDaemon(config, nil)
	if err != nil {
		t.Fatal(err)
	}
	d.ClassifiedFeed = &event.FeedOf[*roadevent.ClassifiedEvent]{}
	d.StatusFeed = &event.FeedOf[string]{}
	d.Latest.Set(&sensor.AccelSample{Z: 9.8}, time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if d.Processor.Processed() == 0 {
		t.Error("Expected some ticks to be processed")
	}
}

func TestNewDaemon_InvalidConfig(t *testing.T) {
	config := params.DefaultSensorDaemonConfig()
	config.TickInterval = 0
	if _, err := NewDaemon(config, nil); err == nil {
		t.Error("Expected error for zero tick interval")
	}
}
