package influxdb

import (
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/roadevent"
	"math"
	"testing"
	"time"
)

func TestEventPoint(t *testing.T) {
	e := &roadevent.ClassifiedEvent{
		Timestamp: time.Unix(1700000000, 0),
		IsPothole: true,
		DeltaZ:    -5,
		Z:         2,
		Lat:       40,
		Lon:       -105,
		HasFix:    true,
		FilteredZ: math.NaN(),
		SpeedKmh:  12,
		Seq:       3,
	}
	p := EventPoint(e)
	if p.Name() != Measurement {
		t.Errorf("Expected measurement %s, but got %s", Measurement, p.Name())
	}
	tags := p.TagList()
	if len(tags) != 1 || tags[0].Key != "pothole" || tags[0].Value != "true" {
		t.Errorf("Expected pothole=true tag, but got %v", tags)
	}
	if !p.Time().Equal(e.Timestamp) {
		t.Errorf("Expected %v, but got %v", e.Timestamp, p.Time())
	}
	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if _, ok := fields["filtered_z"]; ok {
		t.Error("Expected NaN field omitted")
	}
	if fields["delta_z"] != -5.0 || fields["latitude"] != 40.0 || fields["speed"] != 12.0 {
		t.Errorf("Expected delta, latitude and speed fields, but got %v", fields)
	}
}

func TestEventPoint_NoPosition(t *testing.T) {
	p := EventPoint(&roadevent.ClassifiedEvent{Timestamp: time.Unix(0, 0)})
	for _, f := range p.FieldList() {
		if f.Key == "latitude" || f.Key == "longitude" {
			t.Errorf("Expected no position fields before a fix, but got %s", f.Key)
		}
	}
	if p.TagList()[0].Value != "false" {
		t.Errorf("Expected pothole=false, but got %v", p.TagList()[0].Value)
	}
}

func TestNewExporter_Disabled(t *testing.T) {
	if _, err := NewExporter(&params.InfluxSinkConfig{}); err == nil {
		t.Error("Expected error for empty config")
	}
}
