package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/rotblauer/potholed/types/sensor"
	"io"
	"log/slog"
	"time"
)

// MaxRecordSize bounds a single input line.
const MaxRecordSize = 64 * 1024

// ScanRecords reads newline-delimited sensor records from reader and sends them, decoded, on the returned channel.
// Records are stamped with now() when they carry no time of their own.
// Malformed lines are reported on the error channel and skipped; the scan ends
// at EOF, on a read error, or when ctx is cancelled.
// Records with missing axes or invalid coordinates are still sent, paired with the decode error,
// so that callers can decide whether a tick without a usable sample is skipped.
func ScanRecords(ctx context.Context, reader io.Reader, now func() time.Time) (<-chan *sensor.Record, <-chan error) {
	if now == nil {
		now = time.Now
	}
	out := make(chan *sensor.Record)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(out)

		met := newTickScanMeter(5 * time.Second)
		defer met.stop()
		defer func() {
			snap := met.countMeter.Snapshot()
			slog.Info("Record scanner done",
				"lines", humanize.Comma(snap.Count()),
				"accel", humanize.Comma(met.accel.Snapshot().Count()),
				"fix", humanize.Comma(met.fix.Snapshot().Count()),
				"running", time.Since(met.started).Round(time.Second))
		}()

		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 4096), MaxRecordSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			rec, err := sensor.DecodeRecord(line, now())
			if err != nil {
				sendErr(errs, err)
			}
			if rec == nil {
				continue
			}
			met.mark(rec, line)
			select {
			case <-ctx.Done():
				slog.Info("Record scanner cancelled")
				return
			case out <- rec:
			}
		}
		if err := scanner.Err(); err != nil {
			sendErr(errs, fmt.Errorf("scanner(%w)", err))
		}
	}()
	return out, errs
}

// sendErr does not block; when the error channel is full, the error is logged instead.
func sendErr(errs chan error, err error) {
	select {
	case errs <- err:
	default:
		slog.Warn("Record scanner error", "error", err)
	}
}

// WriteRecords encodes records as NDJSON lines until in is closed.
// The output can be read back with ScanRecords; records without a usable
// sample or fix keep that property.
// After a write error the rest of in is drained and discarded.
func WriteRecords(w io.Writer, in <-chan *sensor.Record) error {
	bw := bufio.NewWriter(w)
	var werr error
	for rec := range in {
		if werr != nil {
			continue
		}
		line, err := sensor.EncodeRecord(rec)
		if err != nil {
			werr = err
			continue
		}
		if _, err := bw.Write(append(line, '\n')); err != nil {
			werr = err
		}
	}
	if werr != nil {
		return werr
	}
	return bw.Flush()
}

// Pace re-emits records spaced by the differences between their times, so a
// recording plays back at the speed it was captured.
// Records stamped earlier than their predecessor are sent without waiting.
// Gaps are capped at maxGap; zero leaves them uncapped.
func Pace(ctx context.Context, in <-chan *sensor.Record, maxGap time.Duration) <-chan *sensor.Record {
	out := make(chan *sensor.Record)
	go func() {
		defer close(out)
		var last time.Time
		timer := time.NewTimer(0)
		defer timer.Stop()
		<-timer.C
		for rec := range in {
			if !last.IsZero() {
				gap := rec.Time.Sub(last)
				if maxGap > 0 && gap > maxGap {
					gap = maxGap
				}
				if gap > 0 {
					timer.Reset(gap)
					select {
					case <-ctx.Done():
						return
					case <-timer.C:
					}
				}
			}
			if rec.Time.After(last) {
				last = rec.Time
			}
			select {
			case <-ctx.Done():
				return
			case out <- rec:
			}
		}
	}()
	return out
}
