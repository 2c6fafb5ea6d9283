package testdata

import (
	"context"
	"github.com/rotblauer/potholed/eventdb/flat"
	"github.com/rotblauer/potholed/stream"
	"github.com/rotblauer/potholed/types/sensor"
	"io"
	"path/filepath"
	"runtime"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path the given relative file or directory path,
// relative to this testdata/ directory.
// If rel is already absolute, it is returned unmodified.
// Taken from https://github.com/grpc/grpc-go/blob/master/testdata/testdata.go.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(basepath, rel)
}

// Source_Drive is two minutes of a straight drive north at about 36 km/h.
//
//	zcat testing/testdata/drive.ndjson.gz | wc -l
//	360
//
// There are 240 accel records on a 0.5s cadence, one of them missing z (tick 100),
// and a fix every second. Ticks 60 and 180 hit potholes.
var Source_Drive = "./drive.ndjson.gz"

const (
	DriveAccelRecords = 240
	DriveFixRecords   = 120
	DrivePotholes     = 2
)

var DrivePotholeTicks = []int{60, 180}

// OpenRecording opens a gzipped recording for reading.
func OpenRecording(rel string) (io.ReadCloser, error) {
	return flat.OpenReader(Path(rel))
}

// ReadRecords decodes a gzipped recording.
// The recording is closed once the records channel is drained.
func ReadRecords(ctx context.Context, rel string) (<-chan *sensor.Record, <-chan error) {
	rc, err := OpenRecording(rel)
	if err != nil {
		errs := make(chan error, 1)
		errs <- err
		close(errs)
		out := make(chan *sensor.Record)
		close(out)
		return out, errs
	}
	recs, errs := stream.ScanRecords(ctx, rc, nil)
	out := make(chan *sensor.Record)
	go func() {
		defer close(out)
		defer rc.Close()
		for rec := range recs {
			out <- rec
		}
	}()
	return out, errs
}
