package params

import (
	"os"
	"time"
)

// RemoteSinkConfig configures the remote JSON store events are posted to.
type RemoteSinkConfig struct {
	// URL is the collection endpoint. Events are POSTed, purges are DELETEd.
	// Empty disables the remote sink.
	URL string `mapstructure:"url" json:"url"`

	// Timeout bounds every request.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	// PurgeEvery purges the store after this many processed samples. Zero disables purging.
	PurgeEvery uint64 `mapstructure:"purge_every" json:"purge_every"`
}

func DefaultRemoteSinkConfig() *RemoteSinkConfig {
	return &RemoteSinkConfig{
		Timeout:    2 * time.Second,
		PurgeEvery: 75,
	}
}

type InfluxSinkConfig struct {
	URL    string `mapstructure:"url" json:"url"`
	Token  string `mapstructure:"token" json:"-"`
	Org    string `mapstructure:"org" json:"org"`
	Bucket string `mapstructure:"bucket" json:"bucket"`
}

func DefaultInfluxSinkConfig() *InfluxSinkConfig {
	return &InfluxSinkConfig{
		URL:    os.Getenv("INFLUXDB_URL"),
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
	}
}

func (c *InfluxSinkConfig) Enabled() bool {
	return c != nil && c.URL != "" && c.Bucket != ""
}

type StoreSinkConfig struct {
	// Path is the bbolt database file.
	Path string `mapstructure:"path" json:"path"`

	// PurgeEvery clears stored events after this many processed samples,
	// mirroring the remote store. Zero keeps everything.
	PurgeEvery uint64 `mapstructure:"purge_every" json:"purge_every"`

	// HotspotCellLevel is the s2 cell level pothole counts are aggregated at.
	// Level 20 cells are roughly 8-10m across.
	HotspotCellLevel int `mapstructure:"hotspot_cell_level" json:"hotspot_cell_level"`
}

func DefaultStoreSinkConfig() *StoreSinkConfig {
	return &StoreSinkConfig{
		Path:             "",
		PurgeEvery:       0,
		HotspotCellLevel: 20,
	}
}
