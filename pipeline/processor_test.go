package pipeline

import (
	"context"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/testing/testdata"
	"github.com/rotblauer/potholed/types/sensor"
	"log/slog"
	"math"
	"testing"
	"time"
)

func TestProcessor_FirstSample(t *testing.T) {
	p := NewProcessor(nil)
	now := time.Unix(1700000000, 0)
	e := p.Process(&sensor.AccelSample{X: 0.1, Y: 0.2, Z: 2.0}, nil, now)
	if e == nil {
		t.Fatal("Expected an event")
	}
	if math.Abs(e.FilteredZ-8.24) > 1e-12 {
		t.Errorf("Expected filtered z 8.24, but got %v", e.FilteredZ)
	}
	if math.Abs(e.Baseline-8.24) > 1e-12 {
		t.Errorf("Expected baseline 8.24, but got %v", e.Baseline)
	}
	if e.DeltaZ != 0 {
		t.Errorf("Expected delta 0, but got %v", e.DeltaZ)
	}
	if e.IsPothole {
		t.Error("Expected no pothole")
	}
	if e.Lat != 0 || e.Lon != 0 || e.SpeedKmh != 0 {
		t.Errorf("Expected 0/0 at 0 km/h before any fix, but got %v/%v at %v", e.Lat, e.Lon, e.SpeedKmh)
	}
	if e.Sensitivity != 4 {
		t.Errorf("Expected sensitivity 4, but got %v", e.Sensitivity)
	}
	if !e.Timestamp.Equal(now) || e.X != 0.1 || e.Y != 0.2 || e.Z != 2.0 {
		t.Errorf("Expected raw sample and time carried through, but got %+v", e)
	}
	if e.Seq != 1 || p.Processed() != 1 {
		t.Errorf("Expected seq 1, but got %d (processed %d)", e.Seq, p.Processed())
	}
}

func TestProcessor_MissingSampleSkipsTick(t *testing.T) {
	p := NewProcessor(nil)
	fix := &sensor.GeoFix{Lat: 1, Lon: 2, Time: time.Unix(1, 0)}
	if e := p.Process(nil, fix, time.Unix(1, 0)); e != nil {
		t.Fatalf("Expected no event, but got %+v", e)
	}
	st := p.State()
	if st.Processed != 0 || st.Speed.LastFix != nil || st.Baseline.Window.Len() != 0 || st.Filter.FilteredZ != 9.8 {
		t.Errorf("Expected untouched state, but got %+v", st)
	}
}

func TestProcessor_PositionAndSpeed(t *testing.T) {
	p := NewProcessor(nil)
	z := &sensor.AccelSample{Z: 9.8}
	e := p.Process(z, &sensor.GeoFix{Lat: 0, Lon: 0, Time: time.Unix(0, 0)}, time.Unix(0, 0))
	if e.SpeedKmh != 0 {
		t.Errorf("Expected 0 km/h after one fix, but got %v", e.SpeedKmh)
	}
	if !e.HasPosition() {
		t.Error("Expected a 0/0 fix to count as a position")
	}
	e = p.Process(z, &sensor.GeoFix{Lat: 0, Lon: 0.001, Time: time.Unix(1, 0)}, time.Unix(1, 0))
	want := 6_371_000 * (0.001 * math.Pi / 180) * 3.6
	if math.Abs(e.SpeedKmh-want) > 1e-9 {
		t.Errorf("Expected %v km/h, but got %v", want, e.SpeedKmh)
	}
	if e.Lon != 0.001 {
		t.Errorf("Expected lon 0.001, but got %v", e.Lon)
	}
	// No new fix: speed and position are retained.
	e = p.Process(z, nil, time.Unix(2, 0))
	if math.Abs(e.SpeedKmh-want) > 1e-9 || e.Lon != 0.001 {
		t.Errorf("Expected retained speed and position, but got %v at %v", e.SpeedKmh, e.Lon)
	}
	if e.Sensitivity != 1 {
		t.Errorf("Expected floor sensitivity at speed, but got %v", e.Sensitivity)
	}
}

func TestProcessor_DetectsDip(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn + 1)()
	p := NewProcessor(params.DefaultDetectorConfig())
	now := time.Unix(0, 0)
	for i := 0; i < 20; i++ {
		if e := p.Process(&sensor.AccelSample{Z: 9.8}, nil, now); e.IsPothole {
			t.Fatalf("Expected steady road not to classify, at sample %d: %+v", i, e)
		}
	}
	// A hard downward jolt at standstill: filtered drops 0.2*(9.8-(-20)) ≈ 5.96,
	// the baseline only a tenth of that.
	e := p.Process(&sensor.AccelSample{Z: -20}, nil, now)
	if !e.IsPothole {
		t.Errorf("Expected pothole, but got delta %v vs sensitivity %v", e.DeltaZ, e.Sensitivity)
	}
}

func TestProcessor_UpwardSpikeIsNotPothole(t *testing.T) {
	p := NewProcessor(nil)
	now := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		p.Process(&sensor.AccelSample{Z: 9.8}, nil, now)
	}
	if e := p.Process(&sensor.AccelSample{Z: 60}, nil, now); e.IsPothole {
		t.Errorf("Expected upward spike not to classify, but got %+v", e)
	}
}

func TestProcessor_NaNSampleStillEmits(t *testing.T) {
	p := NewProcessor(nil)
	e := p.Process(&sensor.AccelSample{Z: math.NaN()}, nil, time.Unix(0, 0))
	if e == nil {
		t.Fatal("Expected an event for a NaN sample")
	}
	if e.IsPothole {
		t.Error("Expected NaN sample not to classify")
	}
	if !math.IsNaN(e.DeltaZ) || !math.IsNaN(e.FilteredZ) {
		t.Errorf("Expected NaN propagated, but got %+v", e)
	}
	if p.Processed() != 1 {
		t.Errorf("Expected processed 1, but got %d", p.Processed())
	}
}

func TestProcessor_Drive(t *testing.T) {
	ctx := context.Background()
	recs, errs := testdata.ReadRecords(ctx, testdata.Source_Drive)
	go func() {
		for range errs {
		}
	}()

	p := NewProcessor(nil)
	var pending *sensor.GeoFix
	var potholes []int
	tick := -1
	for rec := range recs {
		if rec.Type == sensor.RecordTypeFix {
			pending = rec.Fix
			continue
		}
		tick++
		if rec.Accel == nil {
			continue
		}
		e := p.Process(rec.Accel, pending, rec.Time)
		pending = nil
		if e.IsPothole {
			potholes = append(potholes, tick)
			if e.SpeedKmh < 30 || e.SpeedKmh > 40 {
				t.Errorf("Expected a speed near 36 km/h, but got %v", e.SpeedKmh)
			}
			if e.Sensitivity != 1 {
				t.Errorf("Expected the minimum sensitivity, but got %v", e.Sensitivity)
			}
		}
	}
	if got := p.Processed(); got != testdata.DriveAccelRecords-1 {
		t.Errorf("Expected %d processed, but got %d", testdata.DriveAccelRecords-1, got)
	}
	if len(potholes) != testdata.DrivePotholes {
		t.Fatalf("Expected %d potholes, but got %v", testdata.DrivePotholes, potholes)
	}
	for i, tick := range testdata.DrivePotholeTicks {
		if potholes[i] != tick {
			t.Errorf("Expected pothole at tick %d, but got %d", tick, potholes[i])
		}
	}
}
