package pothole

import (
	"fmt"
	"github.com/rotblauer/potholed/params"
	"math"
	"testing"
)

func TestDetector_Sensitivity(t *testing.T) {
	d := NewDetector(params.DefaultDetectorConfig())
	cases := []struct {
		speed, want float64
	}{
		{0, 4},
		{3, 2.5},
		{6, 1},
		{60, 1},
		{-2, 4},
	}
	for _, c := range cases {
		if got := d.Sensitivity(c.speed); got != c.want {
			t.Errorf("speed %v: expected sensitivity %v, but got %v", c.speed, c.want, got)
		}
	}
}

func TestDetector_Classify(t *testing.T) {
	d := NewDetector(params.DefaultDetectorConfig())
	cases := []struct {
		filtered, baseline, speed float64
		wantDelta                 float64
		wantPothole               bool
	}{
		{4.75, 9.75, 0, -5, true},
		{6.75, 9.75, 0, -3, false},
		{5.75, 9.75, 0, -4, false}, // strictly less-than
		{8.25, 9.75, 6, -1.5, true},
		{8.75, 9.75, 6, -1, false},
		{15.75, 9.75, 60, 6, false}, // upward spikes never classify
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%v-%v@%v", c.filtered, c.baseline, c.speed), func(t *testing.T) {
			got := d.Classify(c.filtered, c.baseline, c.speed)
			if math.Abs(got.DeltaZ-c.wantDelta) > 1e-9 {
				t.Errorf("Expected delta %v, but got %v", c.wantDelta, got.DeltaZ)
			}
			if got.IsPothole != c.wantPothole {
				t.Errorf("Expected pothole=%v, but got %v", c.wantPothole, got.IsPothole)
			}
		})
	}
}

func TestDetector_ClassifyNaN(t *testing.T) {
	d := NewDetector(params.DefaultDetectorConfig())
	got := d.Classify(math.NaN(), 9.8, 0)
	if got.IsPothole {
		t.Error("Expected NaN delta not to be a pothole")
	}
	if !math.IsNaN(got.DeltaZ) {
		t.Errorf("Expected NaN delta kept for observability, but got %v", got.DeltaZ)
	}
	if d.Classify(-100, math.NaN(), 0).IsPothole {
		t.Error("Expected NaN baseline not to be a pothole")
	}
	if d.Classify(-100, 9.8, math.NaN()).IsPothole {
		t.Error("Expected NaN speed not to be a pothole")
	}
	if d.Classify(math.Inf(-1), math.Inf(-1), 0).IsPothole {
		t.Error("Expected -Inf - -Inf (NaN) not to be a pothole")
	}
}
