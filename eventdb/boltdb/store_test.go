package boltdb

import (
	"errors"
	"github.com/rotblauer/potholed/types/roadevent"
	"go.etcd.io/bbolt"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "events.db"), 20, false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutScanPurge(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LastEvent(); !errors.Is(err, ErrNoEvent) {
		t.Errorf("Expected %v, but got %v", ErrNoEvent, err)
	}
	for i := 1; i <= 3; i++ {
		e := &roadevent.ClassifiedEvent{Timestamp: time.Unix(int64(i), 0), DeltaZ: float64(-i), Seq: uint64(i)}
		if err := s.PutEvent(e); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.CountEvents()
	if err != nil || n != 3 {
		t.Fatalf("Expected 3 events, but got %d (%v)", n, err)
	}

	var seen []float64
	if err := s.ScanEvents(func(e *roadevent.ClassifiedEvent) bool {
		seen = append(seen, e.DeltaZ)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 || seen[0] != -1 || seen[2] != -3 {
		t.Errorf("Expected events in insertion order, but got %v", seen)
	}

	last, err := s.LastEvent()
	if err != nil || last.DeltaZ != -3 {
		t.Errorf("Expected last event delta -3, but got %v (%v)", last, err)
	}

	purged, err := s.PurgeEvents()
	if err != nil || purged != 3 {
		t.Errorf("Expected 3 purged, but got %d (%v)", purged, err)
	}
	if n, _ := s.CountEvents(); n != 0 {
		t.Errorf("Expected 0 events after purge, but got %d", n)
	}
	if err := s.PutEvent(&roadevent.ClassifiedEvent{Timestamp: time.Unix(9, 0)}); err != nil {
		t.Errorf("Expected writes after purge to succeed, but got %v", err)
	}
}

func TestStore_Hotspots(t *testing.T) {
	s := openTestStore(t)
	pothole := func(lat, lon float64) *roadevent.ClassifiedEvent {
		return &roadevent.ClassifiedEvent{Timestamp: time.Unix(0, 0), IsPothole: true, Lat: lat, Lon: lon, HasFix: true}
	}
	for _, e := range []*roadevent.ClassifiedEvent{
		pothole(40.0, -105.0),
		pothole(40.0, -105.0),
		pothole(40.0, -105.0),
		pothole(41.0, -104.0),
		{Timestamp: time.Unix(0, 0), IsPothole: true}, // no fix yet
		{Timestamp: time.Unix(0, 0), Lat: 40.0, Lon: -105.0, HasFix: true},
	} {
		if err := s.PutEvent(e); err != nil {
			t.Fatal(err)
		}
	}
	spots, err := s.Hotspots(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(spots) != 2 {
		t.Fatalf("Expected 2 hotspots, but got %v", spots)
	}
	if spots[0].Count != 3 || spots[1].Count != 1 {
		t.Errorf("Expected counts 3 and 1, but got %v", spots)
	}
	if want := s.CellID(40.0, -105.0).ToToken(); spots[0].Cell != want {
		t.Errorf("Expected cell %s, but got %s", want, spots[0].Cell)
	}
	if spots[0].Lat < 39.999 || spots[0].Lat > 40.001 {
		t.Errorf("Expected cell center near 40, but got %v", spots[0].Lat)
	}

	spots, _ = s.Hotspots(2)
	if len(spots) != 1 {
		t.Errorf("Expected 1 hotspot with min 2, but got %v", spots)
	}

	// Purging events keeps hotspot counts.
	if _, err := s.PurgeEvents(); err != nil {
		t.Fatal(err)
	}
	if spots, _ := s.Hotspots(1); len(spots) != 2 {
		t.Errorf("Expected hotspots kept after purge, but got %v", spots)
	}
}

func TestStore_HotspotsZeroFix(t *testing.T) {
	s := openTestStore(t)
	if err := s.PutEvent(&roadevent.ClassifiedEvent{Timestamp: time.Unix(0, 0), IsPothole: true, HasFix: true}); err != nil {
		t.Fatal(err)
	}
	spots, err := s.Hotspots(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(spots) != 1 || spots[0].Cell != s.CellID(0, 0).ToToken() {
		t.Errorf("Expected a hotspot at 0/0, but got %v", spots)
	}
}

func TestStore_HotspotsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := Open(path, 20, false)
	if err != nil {
		t.Fatal(err)
	}
	e := &roadevent.ClassifiedEvent{Timestamp: time.Unix(0, 0), IsPothole: true, Lat: 1, Lon: 1, HasFix: true}
	s.PutEvent(e)
	s.Close()

	s, err = Open(path, 20, false)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.PutEvent(e)
	spots, _ := s.Hotspots(0)
	if len(spots) != 1 || spots[0].Count != 2 {
		t.Errorf("Expected persisted count 2, but got %v", spots)
	}
}

func TestOpen_InvalidLevel(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "x.db"), 31, false); err == nil {
		t.Error("Expected error for cell level 31")
	}
}

func TestOpen_LockedFails(t *testing.T) {
	defer func(d time.Duration) { OpenTimeout = d }(OpenTimeout)
	OpenTimeout = 50 * time.Millisecond

	path := filepath.Join(t.TempDir(), "events.db")
	w, err := Open(path, 20, false)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	done := make(chan error, 1)
	go func() {
		r, err := Open(path, 20, true)
		if err == nil {
			r.Close()
		}
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, bbolt.ErrTimeout) {
			t.Errorf("Expected %v, but got %v", bbolt.ErrTimeout, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected Open to give up on a locked store")
	}
}
