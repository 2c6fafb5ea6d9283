package source

import (
	"context"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/stream"
	"github.com/rotblauer/potholed/testing/testdata"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFeed(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn + 1)()

	input := strings.Join([]string{
		`{"type":"fix","time":5,"lat":100,"lon":0}`,
		`{"type":"fix","time":6,"lat":40,"lon":-105,"fix_time":3}`,
		`{"type":"accel","time":7,"x":0,"y":0,"z":9.8}`,
	}, "\n")
	ctx := context.Background()
	recs, errs := stream.ScanRecords(ctx, strings.NewReader(input), nil)
	go func() {
		for range errs {
		}
	}()

	latest := NewLatest(0)
	fixes := NewFixBuffer(0)
	Feed(ctx, recs, latest, fixes)

	fix := fixes.Take()
	if fix == nil || fix.Lat != 40 || !fix.Time.Equal(time.Unix(6, 0)) {
		t.Errorf("Expected valid fix received at 6s, but got %v", fix)
	}
	if s := latest.Get(time.Unix(7, 0)); s == nil || s.Z != 9.8 {
		t.Errorf("Expected latest sample z=9.8, but got %v", s)
	}
}

func TestFeed_MissingSampleClears(t *testing.T) {
	input := `{"type":"accel","time":1,"x":0,"y":0,"z":9.8}` + "\n" + `{"type":"accel","time":2,"x":0,"y":0}`
	ctx := context.Background()
	recs, errs := stream.ScanRecords(ctx, strings.NewReader(input), nil)
	go func() {
		for range errs {
		}
	}()
	latest := NewLatest(0)
	Feed(ctx, recs, latest, NewFixBuffer(0))
	if s := latest.Get(time.Unix(2, 0)); s != nil {
		t.Errorf("Expected no usable sample, but got %v", s)
	}
}

func TestOpenInput(t *testing.T) {
	p := filepath.Join(t.TempDir(), "rec.ndjson")
	if err := os.WriteFile(p, []byte(`{"type":"accel","x":1,"y":1,"z":1}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := OpenInput(p)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := OpenInput(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error opening missing input")
	}
}

func TestOpenInput_GZ(t *testing.T) {
	r, err := OpenInput(testdata.Path(testdata.Source_Drive))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	recs, errs := stream.ScanRecords(context.Background(), r, nil)
	go func() {
		for range errs {
		}
	}()
	n := len(stream.Collect(context.Background(), recs))
	if want := testdata.DriveAccelRecords + testdata.DriveFixRecords; n != want {
		t.Errorf("Expected %d records, but got %d", want, n)
	}
}
