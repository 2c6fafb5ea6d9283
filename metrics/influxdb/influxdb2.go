package influxdb

import (
	"errors"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/roadevent"
	"sync"
	"time"
)

const Measurement = "road_event"

// EventPoint maps a classified event to a point.
// Non-finite fields are left out; line protocol has no representation for them.
func EventPoint(e *roadevent.ClassifiedEvent) *write.Point {
	pothole := "false"
	if e.IsPothole {
		pothole = "true"
	}
	p := influxdb2.NewPointWithMeasurement(Measurement).
		SetTime(e.Timestamp).
		AddTag("pothole", pothole)

	fields := []struct {
		key string
		v   float64
	}{
		{"delta_z", e.DeltaZ},
		{"accelerometer_x", e.X},
		{"accelerometer_y", e.Y},
		{"accelerometer_z", e.Z},
		{"filtered_z", e.FilteredZ},
		{"hpf_z", e.HighPassZ},
		{"baseline", e.Baseline},
		{"sensitivity", e.Sensitivity},
		{"speed", e.SpeedKmh},
	}
	for _, f := range fields {
		if common.IsFinite(f.v) {
			p.AddField(f.key, f.v)
		}
	}
	if e.HasPosition() {
		p.AddField("latitude", e.Lat)
		p.AddField("longitude", e.Lon)
	}
	p.AddField("seq", e.Seq)
	return p
}

// Exporter posts classified events to an InfluxDB Write API.
// The Write API buffers and flushes in the background;
// asynchronous write errors are collected and returned by Err and Close.
type Exporter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	wait    sync.WaitGroup
	mu      sync.Mutex
	lastErr error
}

func NewExporter(config *params.InfluxSinkConfig) (*Exporter, error) {
	if !config.Enabled() {
		return nil, errors.New("influxdb url and bucket required")
	}
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Millisecond)
	client := influxdb2.NewClientWithOptions(config.URL, config.Token, opts)
	x := &Exporter{
		client:   client,
		writeAPI: client.WriteAPI(config.Org, config.Bucket),
	}

	// Errors returns a channel for reading errors which occurs during async writes.
	// Must be called before performing any writes for errors to be collected.
	// The chan is unbuffered and must be drained or the writer will block.
	// https://github.com/influxdata/influxdb-client-go?tab=readme-ov-file#reading-async-errors
	errorsCh := x.writeAPI.Errors()
	x.wait.Add(1)
	go func() {
		defer x.wait.Done()
		for e := range errorsCh {
			if e != nil {
				x.mu.Lock()
				x.lastErr = e
				x.mu.Unlock()
			}
		}
	}()
	return x, nil
}

func (x *Exporter) Export(events ...*roadevent.ClassifiedEvent) {
	for _, e := range events {
		x.writeAPI.WritePoint(EventPoint(e))
	}
}

// Err returns and clears the last asynchronous write error.
func (x *Exporter) Err() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	err := x.lastErr
	x.lastErr = nil
	return err
}

// Close flushes pending points and closes the client.
// The last error encountered is returned.
func (x *Exporter) Close() error {
	x.writeAPI.Flush()
	x.client.Close()
	x.wait.Wait()
	return x.Err()
}
