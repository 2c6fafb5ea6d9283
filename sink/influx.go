package sink

import (
	"context"
	"github.com/rotblauer/potholed/metrics/influxdb"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/roadevent"
)

// Influx writes one point per event. Writes are asynchronous;
// a failure surfaces on the event handled after it.
type Influx struct {
	x *influxdb.Exporter
}

func NewInflux(config *params.InfluxSinkConfig) (*Influx, error) {
	x, err := influxdb.NewExporter(config)
	if err != nil {
		return nil, err
	}
	return &Influx{x: x}, nil
}

func (s *Influx) Name() string { return "influxdb" }

func (s *Influx) Handle(_ context.Context, e *roadevent.ClassifiedEvent) error {
	s.x.Export(e)
	return s.x.Err()
}

func (s *Influx) Close() error {
	return s.x.Close()
}
