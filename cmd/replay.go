/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/event"
	"github.com/montanaflynn/stats"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/pipeline"
	"github.com/rotblauer/potholed/sink"
	"github.com/rotblauer/potholed/source"
	"github.com/rotblauer/potholed/stream"
	"github.com/rotblauer/potholed/types/roadevent"
	"github.com/rotblauer/potholed/types/sensor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"time"
)

var optReplayOutput string
var optReplayStore string

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay [recording.ndjson]",
	Short: "Classify a recorded session offline",
	Long: `Replays recorded records through the detector.

Each accel record is one tick, stamped with the record's own time,
so a replay of the same recording always yields the same events.
Fixes are buffered with their record time and consumed by the next tick.

Events are written to a gzipped NDJSON archive (default ~/.potholed/events.ndjson.gz),
and summary statistics are logged.

Examples:

  potholed replay drive.ndjson --output drive.events.ndjson.gz
  zcat drive.ndjson.gz | potholed replay --store drive.db
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		config, err := loadAppConfig(viper.GetViper())
		if err != nil {
			log.Fatalln(err)
		}

		in := "-"
		if len(args) > 0 {
			in = args[0]
		}
		input, err := source.OpenInput(in)
		if err != nil {
			log.Fatalln(err)
		}
		defer input.Close()

		output, err := expandPath(optReplayOutput)
		if err != nil {
			log.Fatalln(err)
		}
		archive, err := sink.NewArchive(output)
		if err != nil {
			log.Fatalln(err)
		}
		sinks := []sink.Sink{archive}
		if optReplayStore != "" {
			storeConfig := *config.Store
			if storeConfig.Path, err = expandPath(optReplayStore); err != nil {
				log.Fatalln(err)
			}
			store, err := sink.NewStore(&storeConfig)
			if err != nil {
				log.Fatalln(err)
			}
			sinks = append(sinks, store)
		}

		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()

		started := time.Now()
		summary, err := replay(ctx, input, config.Detector, sinks...)
		if err != nil {
			log.Fatalln(err)
		}
		summary.log()
		slog.Info("Replay done", "archive", archive.Path(), "took", time.Since(started).Round(time.Millisecond))
	},
}

type replaySummary struct {
	Records      int
	Ticks        int
	Skipped      int
	Fixes        int
	InvalidFixes int
	Potholes     int
	BadRecords   int
	DeltaMin     float64
	DeltaMedian  float64
	DeltaMean    float64
}

func (s *replaySummary) PotholeRatio() float64 {
	if s.Ticks-s.Skipped == 0 {
		return 0
	}
	return float64(s.Potholes) / float64(s.Ticks-s.Skipped)
}

func (s *replaySummary) log() {
	slog.Info("Replay summary",
		"records", humanize.Comma(int64(s.Records)),
		"ticks", humanize.Comma(int64(s.Ticks)),
		"skipped", s.Skipped,
		"fixes", s.Fixes,
		"invalid.fixes", s.InvalidFixes,
		"bad.records", s.BadRecords,
		"potholes", s.Potholes,
		"ratio", common.DecimalToFixed(s.PotholeRatio(), 4),
		"delta.min", common.DecimalToFixed(s.DeltaMin, 3),
		"delta.median", common.DecimalToFixed(s.DeltaMedian, 3),
		"delta.mean", common.DecimalToFixed(s.DeltaMean, 3))
}

// replay runs every record from r through a fresh processor and hands each event to every sink.
// Sinks are closed before replay returns.
func replay(ctx context.Context, r io.Reader, detector *params.DetectorConfig, sinks ...sink.Sink) (*replaySummary, error) {
	feed := event.FeedOf[*roadevent.ClassifiedEvent]{}
	dispatcher := sink.NewDispatcher(sinks...)
	dispatcher.Blocking = true

	sinkCtx, stopSinks := context.WithCancel(context.Background())
	dispatched := dispatcher.Start(sinkCtx, &feed)

	processor := pipeline.NewProcessor(detector)
	fixes := source.NewFixBuffer(0)
	summary := &replaySummary{}
	deltas := stats.Float64Data{}

	records, errs := stream.ScanRecords(ctx, r, nil)
	go func() {
		for err := range errs {
			slog.Debug("Bad record", "error", err)
		}
	}()
	for rec := range records {
		summary.Records++
		switch rec.Type {
		case sensor.RecordTypeFix:
			if rec.Fix == nil {
				summary.InvalidFixes++
				continue
			}
			fixes.Offer(rec.Fix)
		case sensor.RecordTypeAccel:
			summary.Ticks++
			if rec.Accel == nil {
				summary.Skipped++
				continue
			}
			fix := fixes.Take()
			if fix != nil {
				summary.Fixes++
			}
			e := processor.Process(rec.Accel, fix, rec.Time)
			if e.IsPothole {
				summary.Potholes++
			}
			if common.IsFinite(e.DeltaZ) {
				deltas = append(deltas, e.DeltaZ)
			}
			feed.Send(e)
		}
	}
	stopSinks()
	<-dispatched

	if len(deltas) > 0 {
		summary.DeltaMin, _ = deltas.Min()
		summary.DeltaMedian, _ = deltas.Median()
		summary.DeltaMean, _ = deltas.Mean()
	}
	return summary, ctx.Err()
}

func init() {
	rootCmd.AddCommand(replayCmd)

	flags := replayCmd.Flags()
	flags.StringVar(&optReplayOutput, "output", filepath.Join(params.DefaultDatadirRoot, params.EventsArchiveFileName), "Gzipped NDJSON event archive to append to")
	flags.StringVar(&optReplayStore, "store", "", "Also write events to this bbolt store")
}
