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
	"compress/gzip"
	"context"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/daemon/sensord"
	"github.com/rotblauer/potholed/daemon/webd"
	"github.com/rotblauer/potholed/eventdb/boltdb"
	"github.com/rotblauer/potholed/eventdb/flat"
	"github.com/rotblauer/potholed/sink"
	"github.com/rotblauer/potholed/source"
	"github.com/rotblauer/potholed/stream"
	"github.com/rotblauer/potholed/types/sensor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"log"
	"log/slog"
	"sync"
	"time"
)

var optInput string
var optSerial string
var optBaud int
var optInflux bool
var optArchive string
var optRecord string
var optHTTP string

// maxPaceGap caps the pause between records replayed from a file.
const maxPaceGap = 10 * time.Second

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify live sensor records",
	Long: `Reads records from stdin, a file, or a serial port, and runs the detector
on a fixed tick with the latest acceleration reading and location fix.

A file is played back at the pace its records were captured, so the ticks
sample it as they would have live. Use 'potholed replay' to process a
recording as fast as possible.

Examples:

  sensor-bridge | potholed run --remote-url https://example.firebaseio.com/potholes.json
  potholed run --serial /dev/ttyUSB0 --baud 115200 --store ~/.potholed/events.db --http localhost:3000
  potholed run --serial /dev/ttyUSB0 --record ~/drives/today.ndjson.gz
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		config, err := loadAppConfig(viper.GetViper())
		if err != nil {
			log.Fatalln(err)
		}

		var input io.ReadCloser
		paced := false
		if optSerial != "" {
			input, err = source.OpenSerial(optSerial, optBaud)
		} else {
			input, err = source.OpenInput(optInput)
			// Files are read far faster than they were recorded.
			paced = optInput != "-"
		}
		if err != nil {
			log.Fatalln(err)
		}
		defer input.Close()

		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()

		daemon, err := sensord.NewDaemon(config.Sensor, config.Detector)
		if err != nil {
			log.Fatalln(err)
		}

		wg := sync.WaitGroup{}

		records, errs := stream.ScanRecords(ctx, input, nil)
		go func() {
			for err := range errs {
				slog.Warn("Bad record", "error", err)
			}
		}()
		if paced {
			records = stream.Pace(ctx, records, maxPaceGap)
		}
		if optRecord != "" {
			p, err := expandPath(optRecord)
			if err != nil {
				log.Fatalln(err)
			}
			recording, err := flat.OpenAppender(p, gzip.DefaultCompression)
			if err != nil {
				log.Fatalln(err)
			}
			var toFile <-chan *sensor.Record
			records, toFile = stream.Tee(ctx, records)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := stream.WriteRecords(recording, toFile); err != nil {
					slog.Error("Failed to write recording", "error", err)
				}
				if err := recording.Close(); err != nil {
					slog.Error("Failed to close recording", "error", err)
				}
				slog.Info("Recording closed", "path", recording.Path())
			}()
		}
		go func() {
			feedRecords(ctx, records, daemon)
			slog.Info("Input closed")
			cancel()
		}()

		var sinks []sink.Sink
		if config.Remote.URL != "" {
			remote, err := sink.NewRemote(config.Remote)
			if err != nil {
				log.Fatalln(err)
			}
			daemon.Offline = remote.Offline
			sinks = append(sinks, remote)
		}
		if optInflux {
			influx, err := sink.NewInflux(config.Influx)
			if err != nil {
				log.Fatalln(err)
			}
			sinks = append(sinks, influx)
		}
		var store *boltdb.Store
		if config.Store.Path != "" {
			store, err = boltdb.Open(config.Store.Path, config.Store.HotspotCellLevel, false)
			if err != nil {
				log.Fatalln(err)
			}
			defer store.Close()
			sinks = append(sinks, sink.NewStoreWithDB(store, config.Store))
		}
		if optArchive != "" {
			p, err := expandPath(optArchive)
			if err != nil {
				log.Fatalln(err)
			}
			archive, err := sink.NewArchive(p)
			if err != nil {
				log.Fatalln(err)
			}
			sinks = append(sinks, archive)
		}

		dispatcher := sink.NewDispatcher(sinks...)
		dispatcher.OnError = func(string, error) {
			daemon.Meters.MarkSinkError()
		}
		dispatched := dispatcher.Start(ctx, daemon.ClassifiedFeed)

		if optHTTP != "" {
			config.Web.Address = optHTTP
			server := webd.NewWebDaemon(config.Web)
			server.Store = store
			server.Summary = daemon.Meters.Snapshot
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := server.Run(ctx); err != nil {
					slog.Error("Web daemon failed", "error", err)
					cancel()
				}
			}()
		}

		if err := daemon.Run(ctx); err != nil {
			slog.Error("Sensor daemon failed", "error", err)
		}
		<-dispatched
		wg.Wait()
		slog.Info("Run done", "sinks", len(sinks))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringVar(&optInput, "input", "-", "Record input file; - is stdin")
	flags.StringVar(&optSerial, "serial", "", "Serial device emitting records, eg. /dev/ttyUSB0; overrides --input")
	flags.IntVar(&optBaud, "baud", 115200, "Serial baud rate")
	flags.String("remote-url", "", "Remote JSON store URL; events are POSTed, purges DELETEd")
	flags.BoolVar(&optInflux, "influx", false, "Write events to InfluxDB (INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, INFLUXDB_BUCKET)")
	flags.String("store", "", "Local bbolt event store path")
	flags.StringVar(&optArchive, "archive", "", "Gzipped NDJSON event archive path")
	flags.StringVar(&optRecord, "record", "", "Append the raw input records to this gzipped NDJSON file, for replay")
	flags.StringVar(&optHTTP, "http", "", "HTTP address to serve status, hotspots and the event websocket on, eg. localhost:3000")
	flags.Duration("tick", 500*time.Millisecond, "Tick interval")

	bindFlags(viper.GetViper(), flags, map[string]string{
		"remote.url":           "remote-url",
		"store.path":           "store",
		"sensor.tick_interval": "tick",
	})
}

// feedRecords routes records to the daemon until they end, then waits long
// enough for the daemon to tick on the last reading.
func feedRecords(ctx context.Context, records <-chan *sensor.Record, d *sensord.SensorDaemon) {
	source.Feed(ctx, records, d.Latest, d.Fixes)
	select {
	case <-ctx.Done():
	case <-time.After(2 * d.Config.TickInterval):
	}
}
