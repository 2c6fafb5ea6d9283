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
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/daemon/webd"
	"github.com/rotblauer/potholed/eventdb/boltdb"
	"github.com/rotblauer/potholed/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"log/slog"
	"path/filepath"
)

var optWebdAddr string
var optWebdStore string

// webdCmd represents the webd command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Serve a recorded event store",
	Long: `Serves hotspots and the last event from an existing event store.

The store is opened read-only, so it cannot be served while a
'potholed run' process holds it open for writing.
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		config, err := loadAppConfig(viper.GetViper())
		if err != nil {
			log.Fatalln(err)
		}
		path, err := expandPath(optWebdStore)
		if err != nil {
			log.Fatalln(err)
		}
		store, err := boltdb.Open(path, config.Store.HotspotCellLevel, true)
		if err != nil {
			log.Fatalln(err)
		}
		defer store.Close()

		if n, err := store.CountEvents(); err == nil {
			slog.Info("Opened event store", "path", path, "events", n)
		}

		webConfig := *config.Web
		if cmd.Flags().Changed("address") {
			webConfig.Address = optWebdAddr
		}
		server := webd.NewWebDaemon(&webConfig)
		server.Store = store

		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()
		if err := server.Run(ctx); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()

	pFlags := webdCmd.PersistentFlags()
	pFlags.StringVar(&optWebdAddr, "address", defaults.Address, "HTTP address to listen on; overrides web.address")
	pFlags.StringVar(&optWebdStore, "store", filepath.Join(params.DefaultDatadirRoot, params.EventsStoreFileName), "Event store to serve")
}
